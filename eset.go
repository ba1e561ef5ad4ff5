package termexp

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/hupe1980/termexp/expand"
	"github.com/hupe1980/termexp/internal/conv"
	"github.com/hupe1980/termexp/internal/queue"
	"github.com/hupe1980/termexp/termlist"
)

// Term is one weighted expansion term.
type Term struct {
	Term   []byte
	Weight float64
}

// ESet is the result of ExpandSet: the best expansion terms, ordered by
// weight descending and then by term.
type ESet struct {
	terms      []Term
	candidates int
}

// Len returns the number of terms.
func (e *ESet) Len() int { return len(e.terms) }

// Empty reports whether the set holds no terms.
func (e *ESet) Empty() bool { return len(e.terms) == 0 }

// At returns the i-th best term.
func (e *ESet) At(i int) Term { return e.terms[i] }

// Terms returns the terms best-first. The slice must not be modified.
func (e *ESet) Terms() []Term { return e.terms }

// Candidates returns the number of distinct terms the RSet documents held,
// including those rejected or excluded.
func (e *ESet) Candidates() int { return e.candidates }

// All yields rank and term, best-first.
func (e *ESet) All() iter.Seq2[int, Term] {
	return func(yield func(int, Term) bool) {
		for i, t := range e.terms {
			if !yield(i, t) {
				return
			}
		}
	}
}

func betterTerm(a, b Term) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return bytes.Compare(a.Term, b.Term) < 0
}

// ExpandSet suggests terms to add to a query, given documents judged
// relevant.
//
// The term lists of the RSet documents are merged into one ascending stream
// of candidate terms. Every candidate that is neither excluded nor rejected
// by the decider is weighted with the configured scheme, and the best terms
// with a weight above the minimum are returned. An empty RSet yields an
// empty ESet. Any error aborts the expansion.
func (db *DB) ExpandSet(ctx context.Context, rset *RSet, opts ...ExpandOption) (*ESet, error) {
	start := time.Now()
	all := append(slices.Clone(db.expandDefaults), opts...)
	eset, err := db.expandSet(ctx, rset, applyExpandOptions(all))

	terms := 0
	candidates := 0
	if eset != nil {
		terms, candidates = eset.Len(), eset.candidates
	}
	db.metricsCollector.RecordExpand(rset.Len(), terms, time.Since(start), err)
	db.logger.LogExpand(ctx, rset.Len(), candidates, terms, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return eset, nil
}

func (db *DB) expandSet(ctx context.Context, rset *RSet, o expandOptions) (*ESet, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}
	if rset.Empty() {
		return &ESet{}, nil
	}

	rsize, err := conv.ToUint32(rset.Len())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRSet, err)
	}
	tree, err := db.openRSetTree(rset)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := expand.NewWeight(db, rsize, o.scheme, expand.Options{
		ExactTermFreq: o.exactTermFreq,
		ExpandK:       o.expandK,
	})
	top := queue.NewTopK(o.maxItems, betterTerm)

	eset := &ESet{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := tree.Next(); err != nil {
			return nil, translateError(err)
		}
		if tree.AtEnd() {
			break
		}
		eset.candidates++

		term := bytes.Clone(tree.Term())
		if _, ok := o.exclude[string(term)]; ok {
			continue
		}
		if o.decider != nil && !o.decider.Accept(term) {
			continue
		}

		if err := w.CollectStats(tree, term); err != nil {
			return nil, translateError(err)
		}
		weight := w.Weight()
		if weight <= o.minWeight {
			continue
		}
		top.Push(Term{Term: term, Weight: weight})
	}

	eset.terms = top.Sorted()
	return eset, nil
}

// openRSetTree opens the term list of every RSet document and merges them.
// Leaves report their own shard's term frequency, so TermFreq on the tree
// fails once a term occurs in RSet documents of different shards. Callers
// read frequencies only through AccumulateStats.
func (db *DB) openRSetTree(rset *RSet) (termlist.TermList, error) {
	leaves := make([]termlist.TermList, 0, rset.Len())
	for did := range rset.All() {
		i, local, err := db.Locate(did)
		if err != nil {
			closeLists(leaves)
			return nil, err
		}
		tl, err := db.shards[i].OpenDocTermList(local, i)
		if err != nil {
			closeLists(leaves)
			return nil, unknownDocument(did, translateError(err))
		}
		leaves = append(leaves, tl)
	}
	return termlist.Build(leaves, func(l, r termlist.TermList) termlist.TermList {
		return termlist.NewOr(l, r)
	}), nil
}
