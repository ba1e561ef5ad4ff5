package termlist

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStarted is the panic value raised when a positional accessor is
	// used before the first Next or SkipTo.
	ErrNotStarted = errors.New("termlist: accessed before first Next or SkipTo")

	// ErrFreqMismatch indicates that two merged term lists disagree on the
	// term frequency of a shared term.
	ErrFreqMismatch = errors.New("termlist: term frequency mismatch")
)

// ErrInconsistentFreq is returned by a strict union merge when both children
// are positioned on the same term but report different term frequencies.
//
// It wraps ErrFreqMismatch.
type ErrInconsistentFreq struct {
	Term  []byte
	Left  uint32
	Right uint32
}

func (e *ErrInconsistentFreq) Error() string {
	return fmt.Sprintf("termlist: term %q has frequency %d on the left and %d on the right", e.Term, e.Left, e.Right)
}

func (e *ErrInconsistentFreq) Unwrap() error { return ErrFreqMismatch }

// StatsAccumulator receives per-document statistics from term list leaves.
//
// shard identifies the sub-database the document belongs to, wdf is the
// number of occurrences of the current term in the document, docLen is the
// document length, and subTF and subDBSize are the term frequency and
// document count of the shard.
type StatsAccumulator interface {
	Accumulate(shard int, wdf, docLen, subTF, subDBSize uint32)
}

// TermList produces terms in strictly ascending byte order.
//
// A freshly constructed TermList is unpositioned: call Next or SkipTo before
// using any accessor. Once AtEnd reports true the list is exhausted and
// further calls to Next and SkipTo are no-ops.
type TermList interface {
	// Next moves to the next term.
	Next() error

	// SkipTo moves to the first term >= term. It never moves backwards.
	SkipTo(term []byte) error

	// AtEnd reports whether the list is exhausted.
	AtEnd() bool

	// Term returns the current term. The slice is valid until the next move.
	Term() []byte

	// TermFreq returns the number of documents in scope containing the
	// current term.
	TermFreq() (uint32, error)

	// WDF returns the within-document frequency of the current term.
	WDF() uint32

	// ApproxSize returns a cheap estimate of the number of terms remaining.
	ApproxSize() uint64

	// AccumulateStats feeds statistics for the current term into acc.
	AccumulateStats(acc StatsAccumulator) error

	// Close releases the list and everything it owns.
	Close() error
}

// Drain collects every remaining term of tl. It is mostly useful in tests and
// for small lists such as metadata keys.
func Drain(tl TermList) ([][]byte, error) {
	var terms [][]byte
	for {
		if err := tl.Next(); err != nil {
			return nil, err
		}
		if tl.AtEnd() {
			return terms, nil
		}
		terms = append(terms, append([]byte(nil), tl.Term()...))
	}
}
