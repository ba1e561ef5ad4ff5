package termexp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/termexp/expand"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/termlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func termNames(e *ESet) []string {
	var out []string
	for _, t := range e.All() {
		out = append(out, string(t.Term))
	}
	return out
}

func TestExpandSet_RanksCandidates(t *testing.T) {
	db := fruitDB(t)

	eset, err := db.ExpandSet(context.Background(), NewRSet(1, 2, 3))
	require.NoError(t, err)

	assert.Equal(t, 4, eset.Candidates())
	require.Equal(t, 4, eset.Len())
	assert.Equal(t, "apple", string(eset.At(0).Term))
	assert.ElementsMatch(t, []string{"apple", "fig", "kiwi", "pear"}, termNames(eset))

	for i := 1; i < eset.Len(); i++ {
		prev, cur := eset.At(i-1), eset.At(i)
		assert.Greater(t, cur.Weight, 0.0)
		if prev.Weight == cur.Weight {
			assert.Negative(t, bytes.Compare(prev.Term, cur.Term))
		} else {
			assert.Greater(t, prev.Weight, cur.Weight)
		}
	}
}

func TestExpandSet_EmptyRSet(t *testing.T) {
	db := fruitDB(t)

	for _, rset := range []*RSet{nil, {}, NewRSet()} {
		eset, err := db.ExpandSet(context.Background(), rset)
		require.NoError(t, err)
		assert.True(t, eset.Empty())
		assert.Zero(t, eset.Candidates())
	}
}

func TestExpandSet_ExcludeAndDecider(t *testing.T) {
	db := fruitDB(t)
	rset := NewRSet(1, 2, 3)

	eset, err := db.ExpandSet(context.Background(), rset,
		WithExcludeTerms([]byte("apple")),
		WithDecider(DeciderFunc(func(term []byte) bool { return !bytes.Equal(term, []byte("kiwi")) })),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, eset.Candidates())
	assert.ElementsMatch(t, []string{"fig", "pear"}, termNames(eset))
}

func TestExpandSet_MaxItemsAndMinWeight(t *testing.T) {
	db := fruitDB(t)
	rset := NewRSet(1, 2, 3)

	eset, err := db.ExpandSet(context.Background(), rset, WithMaxItems(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, termNames(eset))

	all, err := db.ExpandSet(context.Background(), rset, WithMaxItems(0))
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())

	// Only terms strictly above the minimum survive.
	eset, err = db.ExpandSet(context.Background(), rset, WithMinWeight(all.At(1).Weight))
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, termNames(eset))

	eset, err = db.ExpandSet(context.Background(), rset, WithMinWeight(1e9))
	require.NoError(t, err)
	assert.True(t, eset.Empty())
	assert.Equal(t, 4, eset.Candidates())
}

func TestExpandSet_DefaultMaxItems(t *testing.T) {
	var docs []doc
	for i := range 30 {
		docs = append(docs, d(fmt.Sprintf("t%02d", i), 1, "common", 1))
	}
	db := openDB(t, []shardSpec{{docs: docs}})

	rset := NewRSet()
	for did := uint32(1); did <= 30; did++ {
		rset.Add(did)
	}
	eset, err := db.ExpandSet(context.Background(), rset)
	require.NoError(t, err)
	assert.Equal(t, 31, eset.Candidates())
	assert.Equal(t, DefaultMaxItems, eset.Len())
	assert.Equal(t, "common", string(eset.At(0).Term))
}

func TestExpandSet_Schemes(t *testing.T) {
	db := fruitDB(t)
	rset := NewRSet(1, 2, 3)

	for _, s := range []expand.Scheme{expand.Prob{}, expand.Bo1{}} {
		t.Run(s.Name(), func(t *testing.T) {
			eset, err := db.ExpandSet(context.Background(), rset, WithScheme(s), WithMaxItems(0))
			require.NoError(t, err)
			require.Equal(t, 4, eset.Len())
			assert.Equal(t, "apple", string(eset.At(0).Term))
		})
	}
}

func TestExpandSet_ExactTermFreq(t *testing.T) {
	db := fruitDB(t)

	// Document 1 only touches shard 0, so the estimate scales pear's shard
	// frequency by the collection share while the exact lookup does not.
	approx, err := db.ExpandSet(context.Background(), NewRSet(1))
	require.NoError(t, err)
	exact, err := db.ExpandSet(context.Background(), NewRSet(1), WithExactTermFreq(true))
	require.NoError(t, err)

	weights := func(e *ESet) map[string]float64 {
		m := map[string]float64{}
		for _, t := range e.All() {
			m[string(t.Term)] = t.Weight
		}
		return m
	}
	a, x := weights(approx), weights(exact)
	assert.NotEqual(t, a["pear"], x["pear"])
	assert.NotEqual(t, a["apple"], x["apple"])
}

func TestExpandSet_InvalidRSet(t *testing.T) {
	db := fruitDB(t)

	_, err := db.ExpandSet(context.Background(), NewRSet(0, 1))
	assert.ErrorIs(t, err, ErrInvalidRSet)

	_, err = db.ExpandSet(context.Background(), NewRSet(1, 9))
	var unknown *ErrUnknownDocument
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, uint32(9), unknown.DocID)
}

func TestExpandSet_ContextCancelled(t *testing.T) {
	db := fruitDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eset, err := db.ExpandSet(ctx, NewRSet(1, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, eset)
}

func TestExpandSet_Closed(t *testing.T) {
	db := fruitDB(t)
	require.NoError(t, db.Close())

	_, err := db.ExpandSet(context.Background(), NewRSet(1))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestExpandSet_RecordsMetrics(t *testing.T) {
	mc := &BasicMetricsCollector{}
	db := fruitDB(t, WithMetricsCollector(mc))

	_, err := db.ExpandSet(context.Background(), NewRSet(1, 2, 3), WithMaxItems(2))
	require.NoError(t, err)
	_, err = db.ExpandSet(context.Background(), NewRSet(0))
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.ExpandCount)
	assert.Equal(t, int64(1), stats.ExpandErrors)
	assert.Equal(t, int64(2), stats.ExpandTerms)
}

// 150 documents in two shards of 100 and 50, average length 10. apple occurs
// in four RSet documents with within-document frequencies 2, 1, 0 and 3.
func TestExpandSet_TwoShardScenario(t *testing.T) {
	filler := func(n int) []doc {
		docs := make([]doc, n)
		for i := range docs {
			docs[i] = d("filler", 10)
		}
		return docs
	}

	big := filler(100)
	big[0] = d("apple", 2, "filler", 8)
	big[1] = d("apple", 1, "filler", 9)
	small := filler(50)
	small[0] = d("apple", 0, "filler", 10)
	small[1] = d("apple", 3, "filler", 7)

	db := openDB(t, []shardSpec{{docs: big}, {docs: small}})
	require.Equal(t, uint32(150), db.DocCount())
	require.InDelta(t, 10.0, db.AverageLength(), 1e-9)

	// Local ids 1 and 2 of both shards.
	rset := NewRSet()
	for _, ids := range [][2]uint32{{0, 1}, {0, 2}, {1, 1}, {1, 2}} {
		did, err := db.GlobalID(int(ids[0]), ids[1])
		require.NoError(t, err)
		rset.Add(did)
	}
	eset, err := db.ExpandSet(context.Background(), rset,
		WithExcludeTerms([]byte("filler")),
	)
	require.NoError(t, err)
	require.Equal(t, 1, eset.Len())
	assert.Equal(t, "apple", string(eset.At(0).Term))
	assert.Greater(t, eset.At(0).Weight, 0.0)

	w := expand.NewWeight(db, 4, expand.Prob{}, expand.Options{ExpandK: DefaultExpandK})
	tree, err := db.openRSetTree(rset)
	require.NoError(t, err)
	defer tree.Close()
	require.NoError(t, w.CollectStats(tree, []byte("apple")))
	assert.Equal(t, uint32(4), w.Stats().RTermFreq)
	assert.Equal(t, uint64(7), w.Stats().RCollectionFreq)
	assert.Equal(t, uint32(4), w.Stats().TermFreq)
	assert.InDelta(t, eset.At(0).Weight, w.Weight(), 1e-12)
}

func TestExpandSet_SingleShardTable(t *testing.T) {
	mem := buildTable(t, shardSpec{docs: []doc{d("x", 1, "y", 2)}})
	db, err := Open(context.Background(), []kv.Table{mem}, WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	eset, err := db.ExpandSet(context.Background(), NewRSet(1))
	require.NoError(t, err)
	assert.Equal(t, 2, eset.Candidates())
}

func TestOpenRSetTree_FrequenciesAcrossShards(t *testing.T) {
	db := fruitDB(t)

	// Documents 1 and 3 live in shard 0, where apple has term frequency 2.
	tree, err := db.openRSetTree(NewRSet(1, 3))
	require.NoError(t, err)
	require.NoError(t, tree.Next())
	require.Equal(t, "apple", string(tree.Term()))
	tf, err := tree.TermFreq()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tf)
	require.NoError(t, tree.Close())

	// Across shards the leaves disagree; statistics must be accumulated.
	tree, err = db.openRSetTree(NewRSet(1, 2))
	require.NoError(t, err)
	defer tree.Close()
	require.NoError(t, tree.Next())
	require.Equal(t, "apple", string(tree.Term()))

	_, err = tree.TermFreq()
	assert.ErrorIs(t, err, termlist.ErrFreqMismatch)

	stats := expand.NewStats(db.AverageLength(), DefaultExpandK)
	require.NoError(t, tree.AccumulateStats(stats))
	assert.Equal(t, uint32(2), stats.RTermFreq)
	assert.Equal(t, uint64(5), stats.RCollectionFreq)
	assert.Equal(t, uint32(3), stats.TermFreq)
	assert.Equal(t, uint32(4), stats.DBSize)
	assert.Equal(t, 2, stats.ShardsSeen())
}
