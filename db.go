package termexp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/termexp/expand"
	"github.com/hupe1980/termexp/internal/conv"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/shard"
	"github.com/hupe1980/termexp/termlist"
)

// DB combines several shards into one read-only database.
//
// Document ids are interleaved across shards: local document l of shard s
// (counting shards from zero) has global id (l-1)*N + s + 1 for N shards.
// DB is safe for concurrent use.
type DB struct {
	shards []*shard.Shard

	logger           *Logger
	metricsCollector MetricsCollector
	expandDefaults   []ExpandOption

	mu     sync.RWMutex
	closed bool
}

var _ expand.Database = (*DB)(nil)

// New combines already opened shards. The DB takes over the shards and
// closes them on Close.
func New(shards []*shard.Shard, opts ...Option) (*DB, error) {
	if len(shards) == 0 {
		return nil, ErrNoShards
	}
	o := applyOptions(opts)
	return &DB{
		shards:           shards,
		logger:           o.logger,
		metricsCollector: o.metricsCollector,
		expandDefaults:   o.expandDefaults,
	}, nil
}

// Open opens one shard per table concurrently and combines them. The order
// of tables fixes the shard index of each table.
//
// Tables implementing io.Closer are closed when the DB is closed. If any
// shard fails to open, the shards opened so far are closed again.
func Open(ctx context.Context, tables []kv.Table, opts ...Option) (*DB, error) {
	if len(tables) == 0 {
		return nil, ErrNoShards
	}
	o := applyOptions(opts)

	shards := make([]*shard.Shard, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tables {
		g.Go(func() error {
			if err := o.controller.AcquireBackground(gctx); err != nil {
				return err
			}
			defer o.controller.ReleaseBackground()

			start := time.Now()
			s, err := shard.Open(kv.NewHandle(t, closerOf(t)))
			o.metricsCollector.RecordShardOpen(i, time.Since(start), err)
			if err != nil {
				o.logger.LogShardOpen(gctx, i, 0, err)
				return fmt.Errorf("shard %d: %w", i, err)
			}
			o.logger.LogShardOpen(gctx, i, s.DocCount(), nil)
			shards[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range shards {
			if s != nil {
				_ = s.Close()
			}
		}
		return nil, err
	}
	return New(shards, opts...)
}

func closerOf(t kv.Table) func() error {
	if c, ok := t.(io.Closer); ok {
		return c.Close
	}
	return nil
}

// Shards returns the number of shards.
func (db *DB) Shards() int { return len(db.shards) }

// Shard returns the shard with the given index.
func (db *DB) Shard(i int) *shard.Shard { return db.shards[i] }

func (db *DB) checkOpen() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ErrClosed
	}
	return nil
}

// GlobalID maps the local document id of shard index to its global id.
// Ids whose global form exceeds uint32 fail with conv.ErrOverflow.
func (db *DB) GlobalID(index int, local uint32) (uint32, error) {
	if index < 0 || index >= len(db.shards) || local == 0 {
		return 0, fmt.Errorf("termexp: no document %d in shard %d", local, index)
	}
	g := uint64(local-1)*uint64(len(db.shards)) + uint64(index) + 1
	did, err := conv.ToUint32(g)
	if err != nil {
		return 0, fmt.Errorf("termexp: shard %d document %d: %w", index, local, err)
	}
	return did, nil
}

// Locate maps a global document id to its shard index and local id.
func (db *DB) Locate(did uint32) (index int, local uint32, err error) {
	if did == 0 {
		return 0, 0, fmt.Errorf("%w: document id 0", ErrInvalidRSet)
	}
	n := uint32(len(db.shards))
	return int((did - 1) % n), (did-1)/n + 1, nil
}

// DocCount returns the number of documents over all shards.
func (db *DB) DocCount() uint32 {
	var n uint32
	for _, s := range db.shards {
		n += s.DocCount()
	}
	return n
}

// TotalLength returns the summed length of all documents.
func (db *DB) TotalLength() uint64 {
	var n uint64
	for _, s := range db.shards {
		n += s.TotalLength()
	}
	return n
}

// AverageLength returns the average document length, or 0 for an empty
// database.
func (db *DB) AverageLength() float64 {
	docs := db.DocCount()
	if docs == 0 {
		return 0
	}
	return float64(db.TotalLength()) / float64(docs)
}

// LastDocID returns the highest global document id that was ever assigned.
// It saturates at math.MaxUint32.
func (db *DB) LastDocID() uint32 {
	var last uint32
	for i, s := range db.shards {
		l := s.LastDocID()
		if l == 0 {
			continue
		}
		did, err := db.GlobalID(i, l)
		if err != nil {
			return math.MaxUint32
		}
		last = max(last, did)
	}
	return last
}

// TermFreq returns the number of documents indexed by term.
func (db *DB) TermFreq(term []byte) (uint32, error) {
	var n uint32
	for _, s := range db.shards {
		tf, err := s.TermFreq(term)
		if err != nil {
			return 0, translateError(err)
		}
		n += tf
	}
	return n, nil
}

// CollectionFreq returns the number of occurrences of term.
func (db *DB) CollectionFreq(term []byte) (uint64, error) {
	var n uint64
	for _, s := range db.shards {
		cf, err := s.CollectionFreq(term)
		if err != nil {
			return 0, translateError(err)
		}
		n += cf
	}
	return n, nil
}

// DocLength returns the length of the document with global id did.
func (db *DB) DocLength(did uint32) (uint32, error) {
	i, local, err := db.Locate(did)
	if err != nil {
		return 0, err
	}
	n, err := db.shards[i].DocLength(local)
	if err != nil {
		return 0, unknownDocument(did, translateError(err))
	}
	return n, nil
}

// Metadata returns the value stored under key in the first shard holding
// it, or nil if no shard does.
func (db *DB) Metadata(key []byte) ([]byte, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	for _, s := range db.shards {
		v, err := s.Metadata(key)
		if err != nil {
			return nil, translateError(err)
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// MetadataKeys returns the metadata keys starting with prefix, merged over
// all shards. The caller must Close the returned list.
func (db *DB) MetadataKeys(prefix []byte) (termlist.TermList, error) {
	return db.mergeLists(func(s *shard.Shard) (termlist.TermList, error) {
		return s.MetadataKeys(prefix)
	}, func(l, r termlist.TermList) termlist.TermList {
		return termlist.NewOr(l, r)
	})
}

// AllTerms returns the indexed terms starting with prefix. TermFreq reports
// the term frequency summed over all shards. The caller must Close the
// returned list.
func (db *DB) AllTerms(prefix []byte) (termlist.TermList, error) {
	return db.mergeLists(func(s *shard.Shard) (termlist.TermList, error) {
		return s.AllTerms(prefix)
	}, freqAdder)
}

// Spellings returns the spelling words with their frequency summed over all
// shards. The caller must Close the returned list.
func (db *DB) Spellings() (termlist.TermList, error) {
	return db.mergeLists(func(s *shard.Shard) (termlist.TermList, error) {
		return s.Spellings()
	}, freqAdder)
}

func freqAdder(l, r termlist.TermList) termlist.TermList {
	return termlist.NewFreqAdderOr(l, r)
}

func (db *DB) mergeLists(open func(*shard.Shard) (termlist.TermList, error), merge termlist.MergeFunc) (termlist.TermList, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	lists := make([]termlist.TermList, 0, len(db.shards))
	for _, s := range db.shards {
		tl, err := open(s)
		if err != nil {
			closeLists(lists)
			return nil, translateError(err)
		}
		lists = append(lists, tl)
	}
	return termlist.Build(lists, merge), nil
}

func closeLists(lists []termlist.TermList) {
	for _, tl := range lists {
		_ = tl.Close()
	}
}

// Close closes every shard. Term lists still open keep their shard's table
// alive until they are closed. Close is idempotent.
func (db *DB) Close() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	db.mu.Unlock()

	var errs []error
	for i, s := range db.shards {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("shard %d: %w", i, err))
		}
	}
	err := errors.Join(errs...)
	db.logger.LogClose(context.Background(), len(db.shards), err)
	return err
}
