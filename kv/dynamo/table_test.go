package dynamo

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/termexp/keylist"
	"github.com/hupe1980/termexp/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient keeps items per namespace sorted by sort key.
type mockClient struct {
	mu      sync.Mutex
	items   map[string][]map[string]types.AttributeValue
	queries int
}

func newMockClient() *mockClient {
	return &mockClient{items: make(map[string][]map[string]types.AttributeValue)}
}

func keyOf(item map[string]types.AttributeValue) (string, []byte) {
	return item[attrNamespace].(*types.AttributeValueMemberS).Value,
		item[attrKey].(*types.AttributeValueMemberB).Value
}

func (m *mockClient) find(ns string, k []byte) (int, bool) {
	items := m.items[ns]
	i := sort.Search(len(items), func(i int) bool {
		_, ik := keyOf(items[i])
		return bytes.Compare(ik, k) >= 0
	})
	if i < len(items) {
		_, ik := keyOf(items[i])
		return i, bytes.Equal(ik, k)
	}
	return i, false
}

func (m *mockClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, k := keyOf(in.Item)
	i, found := m.find(ns, k)
	if found {
		m.items[ns][i] = in.Item
	} else {
		m.items[ns] = append(m.items[ns], nil)
		copy(m.items[ns][i+1:], m.items[ns][i:])
		m.items[ns][i] = in.Item
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, k := keyOf(in.Key)
	if i, found := m.find(ns, k); found {
		return &dynamodb.GetItemOutput{Item: m.items[ns][i]}, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, k := keyOf(in.Key)
	if i, found := m.find(ns, k); found {
		m.items[ns] = append(m.items[ns][:i], m.items[ns][i+1:]...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	ns := in.ExpressionAttributeValues[":ns"].(*types.AttributeValueMemberS).Value
	start := 0
	if v, ok := in.ExpressionAttributeValues[":k"]; ok {
		start, _ = m.find(ns, v.(*types.AttributeValueMemberB).Value)
	}
	if in.ExclusiveStartKey != nil {
		_, k := keyOf(in.ExclusiveStartKey)
		i, found := m.find(ns, k)
		if found {
			i++
		}
		start = max(start, i)
	}

	items := m.items[ns][start:]
	out := &dynamodb.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(items) {
		items = items[:*in.Limit]
		last := items[len(items)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrNamespace: last[attrNamespace],
			attrKey:       last[attrKey],
		}
	}
	out.Count = int32(len(items))
	if in.Select != types.SelectCount {
		out.Items = items
	}
	return out, nil
}

func newTable(t *testing.T, client Client, ns string) *Table {
	t.Helper()
	return New(context.Background(), client, "termexp-shards", ns, func(o *Options) {
		o.PageSize = 2
	})
}

func TestTable_GetSetDelete(t *testing.T) {
	tbl := newTable(t, newMockClient(), "shard-0")

	require.NoError(t, tbl.Set([]byte("a"), []byte("1")))
	v, err := tbl.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, tbl.Delete([]byte("a")))
	_, err = tbl.Get([]byte("a"))
	assert.ErrorIs(t, err, kv.ErrNotFound)

	assert.Error(t, tbl.Set(nil, []byte("x")))
}

func TestTable_CursorPaging(t *testing.T) {
	client := newMockClient()
	tbl := newTable(t, client, "shard-0")
	other := newTable(t, client, "shard-1")

	for _, k := range []string{"Y", "Xb", "Wa", "Xc", "Xa"} {
		require.NoError(t, tbl.Set([]byte(k), []byte("v"+k)))
	}
	require.NoError(t, other.Set([]byte("Xz"), nil))

	assert.Equal(t, uint64(5), tbl.ApproxCount())
	assert.Equal(t, uint64(1), other.ApproxCount())

	c, err := tbl.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	var keys []string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, string(c.Key()))
	}
	assert.Equal(t, []string{"Wa", "Xa", "Xb", "Xc", "Y"}, keys)

	found, err := c.Seek([]byte("X"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "Xa", string(c.Key()))
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "vXa", string(v))

	found, err = c.Seek([]byte("Xc"))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = c.Seek([]byte("Z"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, c.Valid())
}

func TestTable_CountCachedUntilWrite(t *testing.T) {
	client := newMockClient()
	tbl := newTable(t, client, "shard-0")
	require.NoError(t, tbl.Set([]byte("a"), nil))

	assert.Equal(t, uint64(1), tbl.ApproxCount())
	q := client.queries
	assert.Equal(t, uint64(1), tbl.ApproxCount())
	assert.Equal(t, q, client.queries)

	require.NoError(t, tbl.Set([]byte("b"), nil))
	assert.Equal(t, uint64(2), tbl.ApproxCount())
}

// pagedClient serves fixed Query pages in order, whatever the input.
type pagedClient struct {
	Client
	pages [][]map[string]types.AttributeValue
	next  int
}

func (p *pagedClient) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if p.next >= len(p.pages) {
		return nil, errors.New("no more pages")
	}
	items := p.pages[p.next]
	p.next++
	out := &dynamodb.QueryOutput{Items: items}
	if p.next < len(p.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrNamespace: &types.AttributeValueMemberS{Value: "shard-0"},
			attrKey:       &types.AttributeValueMemberB{Value: []byte("page")},
		}
	}
	return out, nil
}

func item(k types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrNamespace: &types.AttributeValueMemberS{Value: "shard-0"},
		attrKey:       k,
		attrValue:     &types.AttributeValueMemberB{Value: []byte("v")},
	}
}

func TestCursor_CorruptSortKey(t *testing.T) {
	client := &pagedClient{pages: [][]map[string]types.AttributeValue{
		{item(&types.AttributeValueMemberB{Value: []byte("Xa")})},
		{
			item(&types.AttributeValueMemberS{Value: "Xb"}),
			item(&types.AttributeValueMemberB{Value: []byte("Xc")}),
		},
	}}
	tbl := newTable(t, client, "shard-0")

	c, err := tbl.NewCursor()
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Xa", string(c.Key()))

	ok, err = c.Next()
	assert.ErrorIs(t, err, kv.ErrCorrupt)
	assert.False(t, ok)
	assert.False(t, c.Valid())
	assert.Nil(t, c.Key())
}

func TestCursor_CorruptSortKeyFailsKeyList(t *testing.T) {
	client := &pagedClient{pages: [][]map[string]types.AttributeValue{
		{item(&types.AttributeValueMemberB{Value: []byte("Xa")})},
		{
			item(nil),
			item(&types.AttributeValueMemberB{Value: []byte("Xc")}),
		},
	}}
	tbl := newTable(t, client, "shard-0")

	l, err := keylist.New(kv.NewHandle(tbl, nil), []byte("X"))
	require.NoError(t, err)
	defer l.Close()

	var terms []string
	for {
		if err = l.Next(); err != nil || l.AtEnd() {
			break
		}
		terms = append(terms, string(l.Term()))
	}
	assert.ErrorIs(t, err, kv.ErrCorrupt)
	assert.Equal(t, []string{"a"}, terms)
}
