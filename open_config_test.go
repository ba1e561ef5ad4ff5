package termexp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/termexp/config"
	"github.com/hupe1980/termexp/kv/badgerkv"
	"github.com/hupe1980/termexp/kv/sstable"
	"github.com/hupe1980/termexp/shard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenConfig(t *testing.T) {
	dir := t.TempDir()

	// Shard 0 as an sstable file.
	mem := buildTable(t, shardSpec{docs: []doc{d("apple", 2, "pear", 1), d("apple", 1, "fig", 1)}})
	f, err := os.Create(filepath.Join(dir, "shard0.sst"))
	require.NoError(t, err)
	_, err = sstable.Copy(f, mem, func(o *sstable.Options) { o.Compression = sstable.CompressionZSTD })
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Shard 1 in Badger.
	bt, err := badgerkv.Open(filepath.Join(dir, "shard1"))
	require.NoError(t, err)
	w, err := shard.NewWriter(bt)
	require.NoError(t, err)
	_, err = w.AddDocument(d("apple", 3, "kiwi", 2))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, bt.Close())

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Expand.MaxItems = 2
	cfg.Shards = []config.ShardConfig{
		{Backend: config.BackendSSTable, Path: filepath.Join(dir, "shard0.sst")},
		{Backend: config.BackendBadger, Path: filepath.Join(dir, "shard1")},
	}

	db, err := OpenConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, uint32(3), db.DocCount())

	eset, err := db.ExpandSet(context.Background(), NewRSet(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, eset.Candidates())
	require.Equal(t, 2, eset.Len())
	assert.Equal(t, "apple", string(eset.At(0).Term))

	// Per-call options override the configured defaults.
	eset, err = db.ExpandSet(context.Background(), NewRSet(1, 2), WithMaxItems(0))
	require.NoError(t, err)
	assert.Equal(t, 3, eset.Len())
}

func TestOpenConfig_InvalidScheme(t *testing.T) {
	cfg := config.Default()
	cfg.Expand.Scheme = "tfidf"
	cfg.Shards = []config.ShardConfig{{Backend: config.BackendMemory}}

	_, err := OpenConfig(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrInvalidScheme)
}

func TestOpenConfig_InvalidConfig(t *testing.T) {
	_, err := OpenConfig(context.Background(), config.Default())
	assert.Error(t, err)
}
