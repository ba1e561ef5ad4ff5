package shard

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/termexp/codec"
	"github.com/hupe1980/termexp/kv"
)

var (
	// ErrEmptyKey is returned for empty metadata keys and spelling words.
	ErrEmptyKey = errors.New("shard: empty key")

	// ErrDocNotFound is returned for unknown document ids.
	ErrDocNotFound = errors.New("shard: document not found")
)

// WriterOptions configure a Writer.
type WriterOptions struct {
	// Codec encodes records of a new shard. An existing shard keeps the codec
	// it was created with.
	Codec codec.Codec
}

// Writer adds documents, spellings and metadata to a shard table. It is
// safe for concurrent use; writes are serialized.
type Writer struct {
	mu    sync.Mutex
	table kv.WritableTable
	codec codec.Codec
	stats Stats
}

// NewWriter returns a Writer over table, loading existing shard statistics.
func NewWriter(table kv.WritableTable, optFns ...func(*WriterOptions)) (*Writer, error) {
	opts := WriterOptions{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}

	stats, err := loadStats(table)
	if err != nil {
		return nil, err
	}

	c := opts.Codec
	if stats.Codec != "" {
		if c, err = codec.ByName(stats.Codec); err != nil {
			return nil, err
		}
	}
	stats.Codec = c.Name()

	return &Writer{table: table, codec: c, stats: stats}, nil
}

// Stats returns the current shard statistics.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) saveStats() error {
	b, err := statsCodec.Marshal(w.stats)
	if err != nil {
		return err
	}
	return w.table.Set(statsKey, b)
}

func (w *Writer) updateTerm(term []byte, tfDelta int, cfDelta int64) error {
	ts, err := loadTermStats(w.table, w.codec, term)
	if err != nil {
		return err
	}
	ts.TermFreq = uint32(int64(ts.TermFreq) + int64(tfDelta))
	ts.CollectionFreq = uint64(int64(ts.CollectionFreq) + cfDelta)
	if ts.TermFreq == 0 {
		return w.table.Delete(termKey(term))
	}
	b, err := w.codec.Marshal(ts)
	if err != nil {
		return err
	}
	return w.table.Set(termKey(term), b)
}

// normalize sorts postings and merges duplicate terms. A zero WDF is kept:
// the term is indexed but contributes nothing to the document length.
func normalize(postings []Posting) []Posting {
	out := slices.Clone(postings)
	slices.SortStableFunc(out, func(a, b Posting) int { return bytes.Compare(a.Term, b.Term) })

	merged := out[:0]
	for _, p := range out {
		if n := len(merged); n > 0 && bytes.Equal(merged[n-1].Term, p.Term) {
			merged[n-1].WDF += p.WDF
			continue
		}
		merged = append(merged, Posting{Term: bytes.Clone(p.Term), WDF: p.WDF})
	}
	return merged
}

// AddDocument indexes a document and returns its id. The document length is
// the sum of the within-document frequencies.
func (w *Writer) AddDocument(postings []Posting) (uint32, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	terms := normalize(postings)
	var length uint32
	for _, p := range terms {
		if len(p.Term) == 0 {
			return 0, ErrEmptyKey
		}
		length += p.WDF
	}

	did := w.stats.LastDocID + 1
	b, err := w.codec.Marshal(docRecord{Length: length, Terms: terms})
	if err != nil {
		return 0, err
	}
	if err := w.table.Set(docKey(did), b); err != nil {
		return 0, err
	}
	for _, p := range terms {
		if err := w.updateTerm(p.Term, 1, int64(p.WDF)); err != nil {
			return 0, err
		}
	}

	w.stats.LastDocID = did
	w.stats.DocCount++
	w.stats.TotalLength += uint64(length)
	if err := w.saveStats(); err != nil {
		return 0, err
	}
	return did, nil
}

// DeleteDocument removes a document and its term statistics.
func (w *Writer) DeleteDocument(did uint32) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := loadDoc(w.table, w.codec, did)
	if errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrDocNotFound, did)
	}
	if err != nil {
		return err
	}

	for _, p := range rec.Terms {
		if err := w.updateTerm(p.Term, -1, -int64(p.WDF)); err != nil {
			return err
		}
	}
	if err := w.table.Delete(docKey(did)); err != nil {
		return err
	}

	w.stats.DocCount--
	w.stats.TotalLength -= uint64(rec.Length)
	return w.saveStats()
}

// AddSpelling increases the frequency of a spelling word by inc.
func (w *Writer) AddSpelling(word []byte, inc uint32) error {
	if len(word) == 0 {
		return ErrEmptyKey
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var freq uint32
	b, ok, err := getOptional(w.table, spellKey(word))
	if err != nil {
		return err
	}
	if ok {
		if freq, err = decodeFreq(b); err != nil {
			return err
		}
	}
	return w.table.Set(spellKey(word), encodeFreq(freq+inc))
}

// SetMetadata stores value under key. An empty value removes the key.
func (w *Writer) SetMetadata(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(value) == 0 {
		return w.table.Delete(metaKey(key))
	}
	return w.table.Set(metaKey(key), value)
}

// Flush persists the shard statistics. Every write already does so; Flush
// exists for writers over fresh tables that have not been written yet.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveStats()
}
