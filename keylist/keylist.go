// Package keylist exposes the keys of a kv.Table that share a prefix as a
// termlist.TermList.
//
// It is the leaf used for metadata keys, the all-terms list and spelling
// words: each key below the prefix becomes a term with the prefix stripped.
package keylist

import (
	"bytes"

	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/termlist"
)

const (
	// NoTermFreq is reported by TermFreq when no decoder is configured.
	// Metadata keys are not postings and have no document frequency.
	NoTermFreq uint32 = 0

	// NoWDF is reported by WDF. Within-document frequency does not apply to
	// key lists.
	NoWDF uint32 = 0
)

type state uint8

const (
	unpositioned state = iota
	positioned
	exhausted
)

// Options configure a List.
type Options struct {
	// SubPrefix narrows iteration to keys starting with prefix+SubPrefix.
	// Unlike the prefix it is kept in the reported terms.
	SubPrefix []byte

	// TermFreq decodes a term frequency from the stored value.
	TermFreq func(value []byte) (uint32, error)
}

// WithSubPrefix restricts the list to terms starting with p.
func WithSubPrefix(p []byte) func(*Options) {
	return func(o *Options) { o.SubPrefix = bytes.Clone(p) }
}

// WithTermFreq sets the value decoder used by TermFreq.
func WithTermFreq(decode func(value []byte) (uint32, error)) func(*Options) {
	return func(o *Options) { o.TermFreq = decode }
}

// List iterates the keys of a table below a prefix.
//
// A List holds a reference on its handle until Close, so the table stays open
// even if its owner closes it first. The cursor is owned by the List.
type List struct {
	h      *kv.Handle
	cursor kv.Cursor
	prefix []byte // prefix + sub-prefix, the filter
	strip  int    // bytes removed from keys to form terms
	opts   Options
	state  state
	closed bool
}

var _ termlist.TermList = (*List)(nil)

// New returns a List over the keys of h's table that start with prefix.
func New(h *kv.Handle, prefix []byte, optFns ...func(*Options)) (*List, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := h.Acquire(); err != nil {
		return nil, err
	}
	c, err := h.Table().NewCursor()
	if err != nil {
		_ = h.Release()
		return nil, err
	}

	filter := make([]byte, 0, len(prefix)+len(opts.SubPrefix))
	filter = append(filter, prefix...)
	filter = append(filter, opts.SubPrefix...)

	return &List{
		h:      h,
		cursor: c,
		prefix: filter,
		strip:  len(prefix),
		opts:   opts,
	}, nil
}

// check moves to exhausted when the cursor left the prefix range.
func (l *List) check() {
	if !l.cursor.Valid() || !bytes.HasPrefix(l.cursor.Key(), l.prefix) {
		l.state = exhausted
		return
	}
	l.state = positioned
}

// Next implements termlist.TermList.
func (l *List) Next() error {
	switch {
	case l.closed:
		return kv.ErrClosed
	case l.state == exhausted:
		return nil
	case l.state == unpositioned:
		if _, err := l.cursor.Seek(l.prefix); err != nil {
			return err
		}
		l.check()
		return nil
	}

	if _, err := l.cursor.Next(); err != nil {
		return err
	}
	l.check()
	return nil
}

// SkipTo implements termlist.TermList. term excludes the list prefix but
// includes any sub-prefix.
func (l *List) SkipTo(term []byte) error {
	switch {
	case l.closed:
		return kv.ErrClosed
	case l.state == exhausted:
		return nil
	case l.state == positioned && bytes.Compare(l.Term(), term) >= 0:
		return nil
	}

	key := make([]byte, 0, l.strip+len(term))
	key = append(key, l.prefix[:l.strip]...)
	key = append(key, term...)
	if bytes.Compare(key, l.prefix) < 0 {
		key = l.prefix
	}

	if _, err := l.cursor.Seek(key); err != nil {
		return err
	}
	l.check()
	return nil
}

// AtEnd implements termlist.TermList.
func (l *List) AtEnd() bool { return l.state == exhausted }

func (l *List) mustPosition() {
	if l.state == unpositioned {
		panic(termlist.ErrNotStarted)
	}
}

// Term implements termlist.TermList.
func (l *List) Term() []byte {
	l.mustPosition()
	if l.state == exhausted {
		return nil
	}
	return l.cursor.Key()[l.strip:]
}

// TermFreq implements termlist.TermList.
func (l *List) TermFreq() (uint32, error) {
	l.mustPosition()
	if l.opts.TermFreq == nil || l.state == exhausted {
		return NoTermFreq, nil
	}
	v, err := l.cursor.Value()
	if err != nil {
		return 0, err
	}
	return l.opts.TermFreq(v)
}

// Value returns the value stored under the current key.
func (l *List) Value() ([]byte, error) {
	l.mustPosition()
	if l.state == exhausted {
		return nil, kv.ErrNotFound
	}
	return l.cursor.Value()
}

// WDF implements termlist.TermList.
func (l *List) WDF() uint32 {
	l.mustPosition()
	return NoWDF
}

// ApproxSize implements termlist.TermList.
func (l *List) ApproxSize() uint64 {
	if l.state == exhausted {
		return 0
	}
	if est, ok := l.cursor.(kv.Estimator); ok {
		return est.Remaining()
	}
	return l.h.Table().ApproxCount()
}

// AccumulateStats implements termlist.TermList. Key lists carry no
// document statistics.
func (l *List) AccumulateStats(termlist.StatsAccumulator) error {
	l.mustPosition()
	return nil
}

// Close closes the cursor and releases the handle. It is idempotent.
func (l *List) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.state = exhausted
	cerr := l.cursor.Close()
	if err := l.h.Release(); err != nil {
		return err
	}
	return cerr
}
