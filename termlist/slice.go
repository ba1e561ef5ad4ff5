package termlist

import (
	"bytes"
	"slices"
	"sort"
)

// Entry is one term of an in-memory term list.
type Entry struct {
	Term     []byte
	TermFreq uint32
	WDF      uint32
}

// Slice is an in-memory TermList.
//
// A Slice created with NewDocSlice behaves like the term list of a single
// document in shard Shard and feeds the statistics accumulator; a plain
// Slice ignores AccumulateStats.
type Slice struct {
	entries []Entry
	pos     int

	leaf      bool
	shard     int
	docLen    uint32
	shardSize uint32
}

var _ TermList = (*Slice)(nil)

// NewSlice returns a TermList over entries. The entries are copied and sorted;
// for duplicate terms the first entry wins.
func NewSlice(entries []Entry) *Slice {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int { return bytes.Compare(a.Term, b.Term) })
	sorted = slices.CompactFunc(sorted, func(a, b Entry) bool { return bytes.Equal(a.Term, b.Term) })
	return &Slice{entries: sorted, pos: -1}
}

// NewDocSlice returns a TermList for one document of a shard. Each entry's
// TermFreq is the shard-level term frequency and WDF the within-document
// frequency.
func NewDocSlice(shard int, docLen, shardSize uint32, entries []Entry) *Slice {
	s := NewSlice(entries)
	s.leaf = true
	s.shard = shard
	s.docLen = docLen
	s.shardSize = shardSize
	return s
}

func (s *Slice) mustStart() {
	if s.pos < 0 {
		panic(ErrNotStarted)
	}
}

// Next implements TermList.
func (s *Slice) Next() error {
	if s.pos < len(s.entries) {
		s.pos++
	}
	return nil
}

// SkipTo implements TermList.
func (s *Slice) SkipTo(term []byte) error {
	start := max(s.pos, 0)
	if start >= len(s.entries) {
		s.pos = len(s.entries)
		return nil
	}
	rest := s.entries[start:]
	s.pos = start + sort.Search(len(rest), func(i int) bool {
		return bytes.Compare(rest[i].Term, term) >= 0
	})
	return nil
}

// AtEnd implements TermList.
func (s *Slice) AtEnd() bool { return s.pos >= len(s.entries) }

// Term implements TermList.
func (s *Slice) Term() []byte {
	s.mustStart()
	if s.AtEnd() {
		return nil
	}
	return s.entries[s.pos].Term
}

// TermFreq implements TermList.
func (s *Slice) TermFreq() (uint32, error) {
	s.mustStart()
	if s.AtEnd() {
		return 0, nil
	}
	return s.entries[s.pos].TermFreq, nil
}

// WDF implements TermList.
func (s *Slice) WDF() uint32 {
	s.mustStart()
	if s.AtEnd() {
		return 0
	}
	return s.entries[s.pos].WDF
}

// ApproxSize implements TermList.
func (s *Slice) ApproxSize() uint64 {
	return uint64(len(s.entries) - max(s.pos, 0))
}

// AccumulateStats implements TermList.
func (s *Slice) AccumulateStats(acc StatsAccumulator) error {
	s.mustStart()
	if !s.leaf || s.AtEnd() {
		return nil
	}
	e := s.entries[s.pos]
	acc.Accumulate(s.shard, e.WDF, s.docLen, e.TermFreq, s.shardSize)
	return nil
}

// Close implements TermList.
func (s *Slice) Close() error { return nil }
