package shard

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/termexp/codec"
	"github.com/hupe1980/termexp/keylist"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/termlist"
)

// Shard is the read side of one sub-database. Its statistics are a snapshot
// taken at Open or the last Reopen.
type Shard struct {
	h     *kv.Handle
	codec codec.Codec

	mu    sync.RWMutex
	stats Stats
}

// Open returns a Shard reading the table of h. The Shard takes over h and
// closes it on Close.
func Open(h *kv.Handle) (*Shard, error) {
	s := &Shard{h: h}
	if err := s.Reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reopen refreshes the statistics snapshot.
func (s *Shard) Reopen() error {
	if err := s.h.Acquire(); err != nil {
		return err
	}
	defer s.h.Release()

	stats, err := loadStats(s.h.Table())
	if err != nil {
		return err
	}
	c, err := codec.ByName(stats.Codec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stats, s.codec = stats, c
	s.mu.Unlock()
	return nil
}

func (s *Shard) snapshot() (Stats, codec.Codec) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.codec
}

// Handle returns the table handle of the shard.
func (s *Shard) Handle() *kv.Handle { return s.h }

// Stats returns the statistics snapshot.
func (s *Shard) Stats() Stats {
	st, _ := s.snapshot()
	return st
}

// DocCount returns the number of documents.
func (s *Shard) DocCount() uint32 { return s.Stats().DocCount }

// LastDocID returns the highest document id ever assigned.
func (s *Shard) LastDocID() uint32 { return s.Stats().LastDocID }

// TotalLength returns the sum of all document lengths.
func (s *Shard) TotalLength() uint64 { return s.Stats().TotalLength }

// AverageLength returns the mean document length, or 0 for an empty shard.
func (s *Shard) AverageLength() float64 {
	st := s.Stats()
	if st.DocCount == 0 {
		return 0
	}
	return float64(st.TotalLength) / float64(st.DocCount)
}

// with runs fn while holding a reference on the table.
func (s *Shard) with(fn func(kv.Table) error) error {
	if err := s.h.Acquire(); err != nil {
		return err
	}
	defer s.h.Release()
	return fn(s.h.Table())
}

func (s *Shard) termStats(term []byte) (termStats, error) {
	var ts termStats
	_, c := s.snapshot()
	err := s.with(func(t kv.Table) (err error) {
		ts, err = loadTermStats(t, c, term)
		return err
	})
	return ts, err
}

// TermFreq returns the number of documents indexed by term.
func (s *Shard) TermFreq(term []byte) (uint32, error) {
	ts, err := s.termStats(term)
	return ts.TermFreq, err
}

// CollectionFreq returns the number of occurrences of term.
func (s *Shard) CollectionFreq(term []byte) (uint64, error) {
	ts, err := s.termStats(term)
	return ts.CollectionFreq, err
}

func (s *Shard) doc(did uint32) (docRecord, error) {
	var rec docRecord
	_, c := s.snapshot()
	err := s.with(func(t kv.Table) (err error) {
		rec, err = loadDoc(t, c, did)
		return err
	})
	if errors.Is(err, kv.ErrNotFound) {
		return rec, fmt.Errorf("%w: %d", ErrDocNotFound, did)
	}
	return rec, err
}

// DocLength returns the length of document did.
func (s *Shard) DocLength(did uint32) (uint32, error) {
	rec, err := s.doc(did)
	return rec.Length, err
}

// DocTerms returns the postings of document did in term order.
func (s *Shard) DocTerms(did uint32) ([]Posting, error) {
	rec, err := s.doc(did)
	return rec.Terms, err
}

// Metadata returns the value stored under key, or nil if there is none.
func (s *Shard) Metadata(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	var value []byte
	err := s.with(func(t kv.Table) error {
		v, _, err := getOptional(t, metaKey(key))
		value = bytes.Clone(v)
		return err
	})
	return value, err
}

// MetadataKeys lists the metadata keys starting with prefix.
func (s *Shard) MetadataKeys(prefix []byte) (*keylist.List, error) {
	return keylist.New(s.h, prefixMeta, keylist.WithSubPrefix(prefix))
}

// AllTerms lists the indexed terms starting with prefix. TermFreq reports
// the shard term frequency.
func (s *Shard) AllTerms(prefix []byte) (*keylist.List, error) {
	_, c := s.snapshot()
	return keylist.New(s.h, []byte{prefixTerm},
		keylist.WithSubPrefix(prefix),
		keylist.WithTermFreq(func(v []byte) (uint32, error) {
			var ts termStats
			if err := c.Unmarshal(v, &ts); err != nil {
				return 0, fmt.Errorf("%w: %w", kv.ErrCorrupt, err)
			}
			return ts.TermFreq, nil
		}),
	)
}

// Spellings lists the spelling words. TermFreq reports the word frequency.
func (s *Shard) Spellings() (*keylist.List, error) {
	return keylist.New(s.h, []byte{prefixSpell}, keylist.WithTermFreq(decodeFreq))
}

// OpenDocTermList returns the term list of document did as a leaf of shard
// index. Its statistics carry the shard term frequency of every term and the
// shard document count.
func (s *Shard) OpenDocTermList(did uint32, index int) (*termlist.Slice, error) {
	rec, err := s.doc(did)
	if err != nil {
		return nil, err
	}

	entries := make([]termlist.Entry, 0, len(rec.Terms))
	for _, p := range rec.Terms {
		tf, err := s.TermFreq(p.Term)
		if err != nil {
			return nil, err
		}
		entries = append(entries, termlist.Entry{Term: p.Term, TermFreq: tf, WDF: p.WDF})
	}
	return termlist.NewDocSlice(index, rec.Length, s.DocCount(), entries), nil
}

// Close closes the table handle. Open term lists keep the table alive until
// they are closed.
func (s *Shard) Close() error {
	return s.h.Close()
}
