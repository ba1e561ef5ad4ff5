package kv

import (
	"bytes"
	"slices"
	"sync"
)

type entry struct {
	key   []byte
	value []byte
}

// MemTable is an in-memory WritableTable.
//
// Writes replace the entry slice, so cursors keep reading the snapshot they
// were created on.
type MemTable struct {
	mu      sync.RWMutex
	entries []entry
}

var _ WritableTable = (*MemTable)(nil)

// NewMemTable returns an empty MemTable.
func NewMemTable() *MemTable {
	return &MemTable{}
}

func searchEntries(entries []entry, key []byte) (int, bool) {
	return slices.BinarySearchFunc(entries, key, func(e entry, k []byte) int {
		return bytes.Compare(e.key, k)
	})
}

// Set implements WritableTable.
func (t *MemTable) Set(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := entry{key: bytes.Clone(key), value: bytes.Clone(value)}
	i, found := searchEntries(t.entries, key)
	next := make([]entry, 0, len(t.entries)+1)
	next = append(next, t.entries[:i]...)
	next = append(next, e)
	if found {
		i++
	}
	next = append(next, t.entries[i:]...)
	t.entries = next
	return nil
}

// Delete implements WritableTable.
func (t *MemTable) Delete(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, found := searchEntries(t.entries, key)
	if !found {
		return nil
	}
	next := make([]entry, 0, len(t.entries)-1)
	next = append(next, t.entries[:i]...)
	next = append(next, t.entries[i+1:]...)
	t.entries = next
	return nil
}

// Get implements Table.
func (t *MemTable) Get(key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, found := searchEntries(t.entries, key)
	if !found {
		return nil, ErrNotFound
	}
	return t.entries[i].value, nil
}

// ApproxCount implements Table. The count is exact.
func (t *MemTable) ApproxCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint64(len(t.entries))
}

// NewCursor implements Table.
func (t *MemTable) NewCursor() (Cursor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &memCursor{entries: t.entries, pos: -1}, nil
}

type memCursor struct {
	entries []entry
	pos     int
	closed  bool
}

var _ Estimator = (*memCursor)(nil)

func (c *memCursor) Seek(key []byte) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	i, found := searchEntries(c.entries, key)
	c.pos = i
	return found, nil
}

func (c *memCursor) Next() (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if c.pos < len(c.entries) {
		c.pos++
	}
	return c.Valid(), nil
}

func (c *memCursor) Valid() bool {
	return !c.closed && c.pos >= 0 && c.pos < len(c.entries)
}

func (c *memCursor) Key() []byte {
	if !c.Valid() {
		return nil
	}
	return c.entries[c.pos].key
}

func (c *memCursor) Value() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrNotFound
	}
	return c.entries[c.pos].value, nil
}

func (c *memCursor) Remaining() uint64 {
	if c.pos < 0 {
		return uint64(len(c.entries))
	}
	if c.pos >= len(c.entries) {
		return 0
	}
	return uint64(len(c.entries) - c.pos)
}

func (c *memCursor) Close() error {
	c.closed = true
	return nil
}
