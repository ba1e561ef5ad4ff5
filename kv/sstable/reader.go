package sstable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/termexp/cache"
	"github.com/hupe1980/termexp/internal/conv"
	"github.com/hupe1980/termexp/internal/mmap"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/resource"
)

// Source is the random-access input of a table.
type Source interface {
	io.ReaderAt
	Size() int64
}

// byteSource is implemented by sources that expose their contents directly,
// such as memory mappings. Blocks are then decoded without copying.
type byteSource interface {
	Bytes() []byte
}

// ReadOptions configure Open.
type ReadOptions struct {
	// Controller accounts index memory and throttles block reads. It may be nil.
	Controller *resource.Controller

	// Closer is invoked when the table is closed.
	Closer io.Closer

	// Cache holds decompressed blocks and may be shared between tables.
	// Blocks of uncompressed memory-mapped tables are never cached.
	Cache cache.BlockCache
}

var nextTableID atomic.Uint64

// Table is an immutable sorted table. It implements kv.Table and is safe for
// concurrent use.
type Table struct {
	r          io.ReaderAt
	data       []byte
	footer     footer
	index      []blockHandle
	suffix     []uint64 // suffix[i] = entries in blocks i..n-1
	rc         *resource.Controller
	indexBytes int64
	closer     io.Closer
	id         uint64
	cache      cache.BlockCache

	mu     sync.Mutex
	last   int
	cached []blockEntry

	closed atomic.Bool
}

var _ kv.Table = (*Table)(nil)

// Open reads the footer and index of the table stored in src.
func Open(ctx context.Context, src Source, optFns ...func(*ReadOptions)) (*Table, error) {
	opts := ReadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	size := src.Size()
	if size < footerSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", kv.ErrCorrupt, size)
	}

	t := &Table{
		r:      resource.NewRateLimitedReaderAt(ctx, src, opts.Controller),
		rc:     opts.Controller,
		closer: opts.Closer,
		id:     nextTableID.Add(1),
		cache:  opts.Cache,
		last:   -1,
	}
	if bs, ok := src.(byteSource); ok {
		t.data = bs.Bytes()
	}

	fb, err := t.read(size-footerSize, footerSize)
	if err != nil {
		return nil, err
	}
	if t.footer, err = decodeFooter(fb); err != nil {
		return nil, err
	}
	if t.footer.indexOffset+t.footer.indexLength > uint64(size-footerSize) {
		return nil, fmt.Errorf("%w: index out of bounds", kv.ErrCorrupt)
	}

	t.indexBytes = int64(t.footer.indexLength)
	if err := t.rc.AcquireMemory(ctx, t.indexBytes); err != nil {
		return nil, err
	}

	indexLen, err := conv.ToInt(t.footer.indexLength)
	if err != nil {
		t.rc.ReleaseMemory(t.indexBytes)
		return nil, fmt.Errorf("%w: %w", kv.ErrCorrupt, err)
	}
	frame, err := t.read(int64(t.footer.indexOffset), indexLen)
	if err == nil {
		var raw []byte
		if raw, err = unframeBlock(frame, CompressionNone); err == nil {
			t.index, err = decodeIndex(raw)
		}
	}
	if err != nil {
		t.rc.ReleaseMemory(t.indexBytes)
		return nil, err
	}

	t.suffix = make([]uint64, len(t.index)+1)
	for i := len(t.index) - 1; i >= 0; i-- {
		t.suffix[i] = t.suffix[i+1] + t.index[i].entries
	}
	if t.suffix[0] != t.footer.entries {
		t.rc.ReleaseMemory(t.indexBytes)
		return nil, fmt.Errorf("%w: index counts %d entries, footer %d", kv.ErrCorrupt, t.suffix[0], t.footer.entries)
	}
	return t, nil
}

// OpenFile memory-maps the table at path.
func OpenFile(ctx context.Context, path string, optFns ...func(*ReadOptions)) (*Table, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)

	t, err := Open(ctx, m, append(optFns, func(o *ReadOptions) { o.Closer = m })...)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return t, nil
}

func (t *Table) read(off int64, n int) ([]byte, error) {
	if t.data != nil {
		if off < 0 || off+int64(n) > int64(len(t.data)) {
			return nil, fmt.Errorf("%w: read past end", kv.ErrCorrupt)
		}
		return t.data[off : off+int64(n)], nil
	}
	buf := make([]byte, n)
	if _, err := t.r.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read past end", kv.ErrCorrupt)
		}
		return nil, err
	}
	return buf, nil
}

// block loads and decodes data block i. The most recently used block is
// cached.
func (t *Table) block(i int) ([]blockEntry, error) {
	if t.closed.Load() {
		return nil, kv.ErrClosed
	}

	t.mu.Lock()
	if t.last == i {
		entries := t.cached
		t.mu.Unlock()
		return entries, nil
	}
	t.mu.Unlock()

	h := t.index[i]
	raw, err := t.rawBlock(i)
	if err != nil {
		return nil, err
	}
	entries, err := decodeBlock(raw, h.entries)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.last, t.cached = i, entries
	t.mu.Unlock()
	return entries, nil
}

// rawBlock returns the decompressed bytes of block i, consulting the shared
// cache first.
func (t *Table) rawBlock(i int) ([]byte, error) {
	key := cache.Key{Table: t.id, Block: uint32(i)}
	if t.cache != nil {
		if raw, ok := t.cache.Get(key); ok {
			return raw, nil
		}
	}

	h := t.index[i]
	frame, err := t.read(int64(h.offset), int(h.length))
	if err != nil {
		return nil, err
	}
	raw, err := unframeBlock(frame, t.footer.compression)
	if err != nil {
		return nil, err
	}
	if t.cache != nil && (t.data == nil || t.footer.compression != CompressionNone) {
		t.cache.Set(key, raw)
	}
	return raw, nil
}

// findBlock returns the index of the block that may contain key.
func (t *Table) findBlock(key []byte) int {
	i := sort.Search(len(t.index), func(i int) bool {
		return bytes.Compare(t.index[i].firstKey, key) > 0
	})
	if i > 0 {
		i--
	}
	return i
}

func searchBlock(entries []blockEntry, key []byte) (int, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return bytes.Compare(entries[i].key, key) >= 0
	})
	return i, i < len(entries) && bytes.Equal(entries[i].key, key)
}

// Get implements kv.Table.
func (t *Table) Get(key []byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, kv.ErrClosed
	}
	if len(t.index) == 0 {
		return nil, kv.ErrNotFound
	}
	entries, err := t.block(t.findBlock(key))
	if err != nil {
		return nil, err
	}
	if i, found := searchBlock(entries, key); found {
		return entries[i].value, nil
	}
	return nil, kv.ErrNotFound
}

// ApproxCount implements kv.Table. The count is exact.
func (t *Table) ApproxCount() uint64 { return t.footer.entries }

// Compression returns the block compression of the table.
func (t *Table) Compression() Compression { return t.footer.compression }

// NewCursor implements kv.Table.
func (t *Table) NewCursor() (kv.Cursor, error) {
	if t.closed.Load() {
		return nil, kv.ErrClosed
	}
	return &cursor{t: t, block: -1}, nil
}

// Close releases index memory and the underlying source.
func (t *Table) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.rc.ReleaseMemory(t.indexBytes)

	t.mu.Lock()
	t.last, t.cached = -1, nil
	t.mu.Unlock()

	if t.cache != nil {
		t.cache.Invalidate(func(k cache.Key) bool { return k.Table == t.id })
	}

	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

type cursor struct {
	t       *Table
	block   int // -1 before the first move
	entries []blockEntry
	pos     int
	done    bool
	closed  bool
}

var _ kv.Estimator = (*cursor)(nil)

func (c *cursor) load(i int) error {
	entries, err := c.t.block(i)
	if err != nil {
		return err
	}
	c.block, c.entries, c.pos = i, entries, 0
	return nil
}

// settle moves forward over exhausted blocks.
func (c *cursor) settle() error {
	for c.pos >= len(c.entries) {
		if c.block+1 >= len(c.t.index) {
			c.done = true
			return nil
		}
		if err := c.load(c.block + 1); err != nil {
			return err
		}
	}
	return nil
}

func (c *cursor) Seek(key []byte) (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	c.done = false
	if len(c.t.index) == 0 {
		c.done = true
		return false, nil
	}
	if err := c.load(c.t.findBlock(key)); err != nil {
		return false, err
	}
	var found bool
	c.pos, found = searchBlock(c.entries, key)
	if err := c.settle(); err != nil {
		return false, err
	}
	return found, nil
}

func (c *cursor) Next() (bool, error) {
	if c.closed {
		return false, kv.ErrClosed
	}
	if c.done {
		return false, nil
	}
	if c.block < 0 {
		if len(c.t.index) == 0 {
			c.done = true
			return false, nil
		}
		if err := c.load(0); err != nil {
			return false, err
		}
	} else {
		c.pos++
	}
	if err := c.settle(); err != nil {
		return false, err
	}
	return c.Valid(), nil
}

func (c *cursor) Valid() bool {
	return !c.closed && !c.done && c.block >= 0 && c.pos < len(c.entries)
}

func (c *cursor) Key() []byte {
	if !c.Valid() {
		return nil
	}
	return c.entries[c.pos].key
}

func (c *cursor) Value() ([]byte, error) {
	if !c.Valid() {
		return nil, kv.ErrNotFound
	}
	return c.entries[c.pos].value, nil
}

func (c *cursor) Remaining() uint64 {
	switch {
	case c.block < 0:
		return c.t.footer.entries
	case !c.Valid():
		return 0
	default:
		return c.t.suffix[c.block+1] + uint64(len(c.entries)-c.pos)
	}
}

func (c *cursor) Close() error {
	c.closed = true
	c.entries = nil
	return nil
}
