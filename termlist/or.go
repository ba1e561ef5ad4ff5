package termlist

import (
	"bytes"
	"errors"
)

// Or merges two ascending term lists into one ascending, duplicate-free list.
//
// A term present in both children is emitted once. While the children are
// positioned on different terms only the smaller side is advanced by Next.
// Once one child is exhausted the merge passes the other child through.
type Or struct {
	left, right TermList

	// cmp is bytes.Compare(left.Term(), right.Term()) for the current
	// position, with an exhausted child comparing greater than any term.
	// It is zero until the first Next or SkipTo.
	cmp int

	started bool
	addFreq bool
}

var _ TermList = (*Or)(nil)

// NewOr returns a strict union of left and right. Both children are expected
// to describe the same population, so a shared term must carry the same term
// frequency on both sides; TermFreq fails with ErrInconsistentFreq otherwise.
//
// The returned list owns left and right.
func NewOr(left, right TermList) *Or {
	return &Or{left: left, right: right}
}

// NewFreqAdderOr returns a union of left and right which reports the sum of
// both term frequencies for a shared term. Use it when the children describe
// disjoint populations, e.g. the vocabularies of different shards.
//
// The returned list owns left and right.
func NewFreqAdderOr(left, right TermList) *Or {
	return &Or{left: left, right: right, addFreq: true}
}

func (o *Or) mustStart() {
	if !o.started {
		panic(ErrNotStarted)
	}
}

func (o *Or) compare() {
	lEnd, rEnd := o.left.AtEnd(), o.right.AtEnd()
	switch {
	case lEnd && rEnd:
		o.cmp = 0
	case lEnd:
		o.cmp = 1
	case rEnd:
		o.cmp = -1
	default:
		o.cmp = bytes.Compare(o.left.Term(), o.right.Term())
	}
}

// Next implements TermList.
func (o *Or) Next() error {
	if o.AtEnd() {
		return nil
	}
	if o.cmp <= 0 {
		if err := o.left.Next(); err != nil {
			return err
		}
	}
	if o.cmp >= 0 {
		if err := o.right.Next(); err != nil {
			return err
		}
	}
	o.started = true
	o.compare()
	return nil
}

// SkipTo implements TermList.
func (o *Or) SkipTo(term []byte) error {
	if o.AtEnd() {
		return nil
	}
	if !o.left.AtEnd() {
		if err := o.left.SkipTo(term); err != nil {
			return err
		}
	}
	if !o.right.AtEnd() {
		if err := o.right.SkipTo(term); err != nil {
			return err
		}
	}
	o.started = true
	o.compare()
	return nil
}

// AtEnd implements TermList.
func (o *Or) AtEnd() bool {
	return o.started && o.left.AtEnd() && o.right.AtEnd()
}

// Term implements TermList.
func (o *Or) Term() []byte {
	o.mustStart()
	if o.cmp > 0 {
		return o.right.Term()
	}
	if o.left.AtEnd() {
		return nil
	}
	return o.left.Term()
}

// TermFreq implements TermList.
func (o *Or) TermFreq() (uint32, error) {
	o.mustStart()
	if o.cmp < 0 {
		return o.left.TermFreq()
	}
	if o.cmp > 0 {
		return o.right.TermFreq()
	}
	if o.AtEnd() {
		return 0, nil
	}

	lf, err := o.left.TermFreq()
	if err != nil {
		return 0, err
	}
	rf, err := o.right.TermFreq()
	if err != nil {
		return 0, err
	}
	if o.addFreq {
		return lf + rf, nil
	}
	if lf != rf {
		return 0, &ErrInconsistentFreq{
			Term:  append([]byte(nil), o.left.Term()...),
			Left:  lf,
			Right: rf,
		}
	}
	return lf, nil
}

// WDF implements TermList. A shared term reports the sum of both sides.
func (o *Or) WDF() uint32 {
	o.mustStart()
	switch {
	case o.AtEnd():
		return 0
	case o.cmp < 0:
		return o.left.WDF()
	case o.cmp > 0:
		return o.right.WDF()
	default:
		return o.left.WDF() + o.right.WDF()
	}
}

// ApproxSize implements TermList.
func (o *Or) ApproxSize() uint64 {
	return o.left.ApproxSize() + o.right.ApproxSize()
}

// AccumulateStats implements TermList. It delegates to whichever children are
// positioned on the current term.
func (o *Or) AccumulateStats(acc StatsAccumulator) error {
	o.mustStart()
	if o.AtEnd() {
		return nil
	}
	if o.cmp <= 0 {
		if err := o.left.AccumulateStats(acc); err != nil {
			return err
		}
	}
	if o.cmp >= 0 {
		if err := o.right.AccumulateStats(acc); err != nil {
			return err
		}
	}
	return nil
}

// Close closes both children.
func (o *Or) Close() error {
	return errors.Join(o.left.Close(), o.right.Close())
}
