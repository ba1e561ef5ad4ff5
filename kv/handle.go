package kv

import (
	"fmt"
	"sync"
)

// Handle shares ownership of a table between a database and the iterators
// reading from it.
//
// Close marks the handle closing; the underlying table is only closed once
// every reference taken with Acquire has been released.
type Handle struct {
	table  Table
	closer func() error

	mu       sync.Mutex
	refs     int
	closing  bool
	closed   bool
	closeErr error
}

// NewHandle wraps table. closer, if non-nil, is called exactly once when the
// last reference is released after Close.
func NewHandle(table Table, closer func() error) *Handle {
	return &Handle{table: table, closer: closer}
}

// Table returns the wrapped table.
func (h *Handle) Table() Table { return h.table }

// Acquire takes a reference. It fails with ErrClosed once Close was called.
func (h *Handle) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return ErrClosed
	}
	h.refs++
	return nil
}

// Release drops a reference taken with Acquire. Releasing the last reference
// of a closing handle closes the table and returns its error.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refs == 0 {
		panic(fmt.Errorf("kv: handle released more often than acquired"))
	}
	h.refs--
	if h.closing && h.refs == 0 {
		return h.closeLocked()
	}
	return nil
}

// Close closes the handle. If references are outstanding the table stays
// open until the last one is released. Close is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		if h.closed {
			return h.closeErr
		}
		return nil
	}
	h.closing = true
	if h.refs == 0 {
		return h.closeLocked()
	}
	return nil
}

// Refs returns the number of outstanding references.
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Closed reports whether the underlying table has been closed.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Handle) closeLocked() error {
	h.closed = true
	if h.closer != nil {
		h.closeErr = h.closer()
	}
	return h.closeErr
}
