// Package badgerkv adapts a Badger database to kv.WritableTable.
//
// Badger gives shards a mutable, crash-safe backing store. Every cursor runs
// inside its own read-only transaction and therefore sees a snapshot.
package badgerkv

import (
	"bytes"
	"errors"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/hupe1980/termexp/kv"
)

// Table is a kv.WritableTable backed by Badger.
type Table struct {
	db     *badger.DB
	owned  bool
	closed atomic.Bool
}

var _ kv.WritableTable = (*Table)(nil)

// Open opens (or creates) a Badger database in dir. An empty dir opens an
// in-memory database.
func Open(dir string) (*Table, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Table{db: db, owned: true}, nil
}

// New wraps an already open database. Close does not close db.
func New(db *badger.DB) *Table {
	return &Table{db: db}
}

// DB returns the underlying database.
func (t *Table) DB() *badger.DB { return t.db }

// Get implements kv.Table.
func (t *Table) Get(key []byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, kv.ErrClosed
	}
	var value []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, kv.ErrNotFound
	}
	return value, err
}

// Set implements kv.WritableTable.
func (t *Table) Set(key, value []byte) error {
	if t.closed.Load() {
		return kv.ErrClosed
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete implements kv.WritableTable.
func (t *Table) Delete(key []byte) error {
	if t.closed.Load() {
		return kv.ErrClosed
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Batch applies fn inside a single read-write transaction.
func (t *Table) Batch(fn func(set func(key, value []byte) error, del func(key []byte) error) error) error {
	if t.closed.Load() {
		return kv.ErrClosed
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return fn(txn.Set, txn.Delete)
	})
}

// ApproxCount implements kv.Table. Flushed tables report their key counts;
// data still in memtables is counted with a key-only scan.
func (t *Table) ApproxCount() uint64 {
	if t.closed.Load() {
		return 0
	}
	var n uint64
	for _, ti := range t.db.Tables() {
		n += uint64(ti.KeyCount)
	}
	if n > 0 {
		return n
	}
	_ = t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

// NewCursor implements kv.Table.
func (t *Table) NewCursor() (kv.Cursor, error) {
	if t.closed.Load() {
		return nil, kv.ErrClosed
	}
	txn := t.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	return &cursor{txn: txn, it: txn.NewIterator(opts)}, nil
}

// Close closes the database if it was opened by Open.
func (t *Table) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.owned {
		return t.db.Close()
	}
	return nil
}

type cursor struct {
	txn     *badger.Txn
	it      *badger.Iterator
	started bool
	closed  bool
}

func (c *cursor) Seek(key []byte) (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	c.started = true
	c.it.Seek(key)
	if !c.it.Valid() {
		return false, nil
	}
	return bytes.Equal(c.it.Item().Key(), key), nil
}

func (c *cursor) Next() (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	if !c.started {
		c.started = true
		c.it.Rewind()
		return c.it.Valid(), nil
	}
	if !c.it.Valid() {
		return false, nil
	}
	c.it.Next()
	return c.it.Valid(), nil
}

func (c *cursor) Valid() bool {
	return !c.closed && c.started && c.it.Valid()
}

func (c *cursor) Key() []byte {
	if !c.Valid() {
		return nil
	}
	return c.it.Item().Key()
}

func (c *cursor) Value() ([]byte, error) {
	if !c.Valid() {
		return nil, kv.ErrNotFound
	}
	return c.it.Item().ValueCopy(nil)
}

func (c *cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.it.Close()
	c.txn.Discard()
	return nil
}
