// Package dynamo stores a kv.WritableTable in a DynamoDB table.
//
// Many shards can share one DynamoDB table: each shard owns a namespace
// (the partition key) and its entries are ordered by a binary sort key.
//
// Table schema:
//   - Partition key: ns (string)
//   - Sort key: k (binary)
//   - Value attribute: v (binary)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name termexp-shards \
//	  --attribute-definitions AttributeName=ns,AttributeType=S AttributeName=k,AttributeType=B \
//	  --key-schema AttributeName=ns,KeyType=HASH AttributeName=k,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/termexp/kv"
)

// Client is the subset of the DynamoDB API used by Table.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

const (
	attrNamespace = "ns"
	attrKey       = "k"
	attrValue     = "v"
)

// Options configure a Table.
type Options struct {
	// PageSize is the Query page size used by cursors.
	PageSize int32

	// ConsistentRead enables strongly consistent reads.
	ConsistentRead bool
}

// Table is a kv.WritableTable backed by one namespace of a DynamoDB table.
// Operations use the context passed to New.
type Table struct {
	ctx       context.Context
	client    Client
	tableName string
	namespace string
	opts      Options

	mu      sync.Mutex
	count   uint64
	counted bool
}

var _ kv.WritableTable = (*Table)(nil)

// New returns a Table storing entries under namespace.
func New(ctx context.Context, client Client, tableName, namespace string, optFns ...func(*Options)) *Table {
	opts := Options{PageSize: 256}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Table{
		ctx:       ctx,
		client:    client,
		tableName: tableName,
		namespace: namespace,
		opts:      opts,
	}
}

func (t *Table) itemKey(key []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrNamespace: &types.AttributeValueMemberS{Value: t.namespace},
		attrKey:       &types.AttributeValueMemberB{Value: key},
	}
}

// Get implements kv.Table.
func (t *Table) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, kv.ErrNotFound
	}
	resp, err := t.client.GetItem(t.ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.tableName),
		Key:            t.itemKey(key),
		ConsistentRead: aws.Bool(t.opts.ConsistentRead),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: get item: %w", err)
	}
	if len(resp.Item) == 0 {
		return nil, kv.ErrNotFound
	}
	return itemValue(resp.Item)
}

// Set implements kv.WritableTable. Empty keys are rejected by DynamoDB.
func (t *Table) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("dynamo: empty key")
	}
	item := t.itemKey(key)
	item[attrValue] = &types.AttributeValueMemberB{Value: value}

	if _, err := t.client.PutItem(t.ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamo: put item: %w", err)
	}
	t.invalidateCount()
	return nil
}

// Delete implements kv.WritableTable.
func (t *Table) Delete(key []byte) error {
	if len(key) == 0 {
		return nil
	}
	if _, err := t.client.DeleteItem(t.ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.tableName),
		Key:       t.itemKey(key),
	}); err != nil {
		return fmt.Errorf("dynamo: delete item: %w", err)
	}
	t.invalidateCount()
	return nil
}

func (t *Table) invalidateCount() {
	t.mu.Lock()
	t.counted = false
	t.mu.Unlock()
}

// ApproxCount implements kv.Table. The namespace is counted with a
// COUNT query and cached until the next write.
func (t *Table) ApproxCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counted {
		return t.count
	}

	var n uint64
	var start map[string]types.AttributeValue
	for {
		in := t.query(nil, start)
		in.Select = types.SelectCount
		in.Limit = nil
		resp, err := t.client.Query(t.ctx, in)
		if err != nil {
			return n
		}
		n += uint64(resp.Count)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		start = resp.LastEvaluatedKey
	}
	t.count, t.counted = n, true
	return n
}

func (t *Table) query(from []byte, start map[string]types.AttributeValue) *dynamodb.QueryInput {
	values := map[string]types.AttributeValue{
		":ns": &types.AttributeValueMemberS{Value: t.namespace},
	}
	cond := "ns = :ns"
	if len(from) > 0 {
		cond += " AND k >= :k"
		values[":k"] = &types.AttributeValueMemberB{Value: from}
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(t.tableName),
		KeyConditionExpression:    aws.String(cond),
		ExpressionAttributeValues: values,
		ExclusiveStartKey:         start,
		ScanIndexForward:          aws.Bool(true),
		ConsistentRead:            aws.Bool(t.opts.ConsistentRead),
		Limit:                     aws.Int32(t.opts.PageSize),
	}
}

// NewCursor implements kv.Table. Cursors page through the namespace with
// Query and are not snapshots: concurrent writes may or may not be seen.
func (t *Table) NewCursor() (kv.Cursor, error) {
	return &cursor{t: t}, nil
}

func itemValue(item map[string]types.AttributeValue) ([]byte, error) {
	v, ok := item[attrValue]
	if !ok {
		return nil, nil
	}
	b, ok := v.(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("%w: value attribute is %T", kv.ErrCorrupt, v)
	}
	return b.Value, nil
}

func itemSortKey(item map[string]types.AttributeValue) ([]byte, error) {
	b, ok := item[attrKey].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("%w: missing sort key", kv.ErrCorrupt)
	}
	return b.Value, nil
}

type cursor struct {
	t       *Table
	page    []map[string]types.AttributeValue
	pos     int
	next    map[string]types.AttributeValue
	started bool
	closed  bool
}

// fetch loads pages until one has items or the namespace is exhausted. A
// page holding an item without a binary sort key fails as kv.ErrCorrupt.
func (c *cursor) fetch(from []byte, start map[string]types.AttributeValue) error {
	for {
		resp, err := c.t.client.Query(c.t.ctx, c.t.query(from, start))
		if err != nil {
			return fmt.Errorf("dynamo: query: %w", err)
		}
		for _, item := range resp.Items {
			if _, err := itemSortKey(item); err != nil {
				c.page, c.pos, c.next = nil, 0, nil
				return fmt.Errorf("dynamo: query: %w", err)
			}
		}
		c.page, c.pos, c.next = resp.Items, 0, resp.LastEvaluatedKey
		if len(c.page) > 0 || len(c.next) == 0 {
			return nil
		}
		start = c.next
	}
}

func (c *cursor) Seek(key []byte) (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	c.started = true
	if err := c.fetch(key, nil); err != nil {
		return false, err
	}
	return c.Valid() && bytes.Equal(c.Key(), key), nil
}

func (c *cursor) Next() (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	if !c.started {
		c.started = true
		if err := c.fetch(nil, nil); err != nil {
			return false, err
		}
		return c.Valid(), nil
	}
	if !c.Valid() {
		return false, nil
	}
	c.pos++
	if c.pos >= len(c.page) && len(c.next) > 0 {
		if err := c.fetch(nil, c.next); err != nil {
			return false, err
		}
	}
	return c.Valid(), nil
}

func (c *cursor) Valid() bool {
	return !c.closed && c.started && c.pos < len(c.page)
}

func (c *cursor) Key() []byte {
	if !c.Valid() {
		return nil
	}
	// Sort keys were checked by fetch.
	return c.page[c.pos][attrKey].(*types.AttributeValueMemberB).Value
}

func (c *cursor) Value() ([]byte, error) {
	if !c.Valid() {
		return nil, kv.ErrNotFound
	}
	return itemValue(c.page[c.pos])
}

func (c *cursor) Close() error {
	c.closed = true
	c.page, c.next = nil, nil
	return nil
}
