package kv

import (
	"bytes"
	"errors"
)

var (
	// ErrNotFound is returned by Get when a key does not exist.
	ErrNotFound = errors.New("kv: key not found")

	// ErrClosed is returned when a table or handle is used after Close.
	ErrClosed = errors.New("kv: closed")

	// ErrCorrupt indicates malformed on-disk data.
	ErrCorrupt = errors.New("kv: corrupt table")

	// ErrReadOnly is returned by writes to an immutable table.
	ErrReadOnly = errors.New("kv: table is read-only")
)

// Cursor is a positionable handle over a sorted key/value table.
//
// Keys are ordered byte-lexicographically. A new cursor is unpositioned;
// Next on an unpositioned cursor moves to the first entry. Key and Value are
// only meaningful while Valid reports true, and the returned slices are only
// valid until the cursor moves.
type Cursor interface {
	// Seek positions the cursor on the first key >= key. found reports an
	// exact match. If no such key exists the cursor becomes invalid.
	Seek(key []byte) (found bool, err error)

	// Next moves to the following entry. ok is false once the end of the
	// table is reached.
	Next() (ok bool, err error)

	// Valid reports whether the cursor is on an entry.
	Valid() bool

	// Key returns the current key.
	Key() []byte

	// Value returns the current value.
	Value() ([]byte, error)

	// Close releases the cursor.
	Close() error
}

// Estimator is implemented by cursors that can estimate how many entries
// follow the current position.
type Estimator interface {
	Remaining() uint64
}

// Table is a sorted key/value table.
//
// Implementations must allow concurrent read-only cursors; each cursor reads
// a consistent snapshot.
type Table interface {
	// NewCursor returns an unpositioned cursor.
	NewCursor() (Cursor, error)

	// Get returns the value stored under key or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// ApproxCount returns an estimate of the number of entries.
	ApproxCount() uint64
}

// WritableTable is a Table that accepts writes.
type WritableTable interface {
	Table

	// Set stores value under key.
	Set(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, or nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
