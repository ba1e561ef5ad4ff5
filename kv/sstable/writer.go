package sstable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/termexp/kv"
)

// ErrOutOfOrder is returned when keys are not added in strictly ascending
// order.
var ErrOutOfOrder = errors.New("sstable: keys must be strictly ascending")

// Options configure table writing and reading.
type Options struct {
	// Compression is the block compression used by writers.
	Compression Compression

	// BlockSize is the target uncompressed size of a data block.
	BlockSize int
}

// DefaultOptions are used when no option functions are given.
var DefaultOptions = Options{
	Compression: CompressionLZ4,
	BlockSize:   16 * 1024,
}

// Writer streams sorted entries into a table file.
type Writer struct {
	w    io.Writer
	opts Options

	block        []byte
	blockFirst   []byte
	blockEntries uint64

	index   []blockHandle
	offset  uint64
	entries uint64
	lastKey []byte
	hasLast bool
	done    bool
}

// NewWriter returns a Writer producing a table on w.
func NewWriter(w io.Writer, optFns ...func(*Options)) *Writer {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultOptions.BlockSize
	}
	return &Writer{w: w, opts: opts}
}

// Add appends an entry. Keys must be strictly ascending.
func (w *Writer) Add(key, value []byte) error {
	if w.done {
		return kv.ErrClosed
	}
	if w.hasLast && bytes.Compare(key, w.lastKey) <= 0 {
		return fmt.Errorf("%w: %q after %q", ErrOutOfOrder, key, w.lastKey)
	}
	w.lastKey = append(w.lastKey[:0], key...)
	w.hasLast = true

	if w.blockEntries == 0 {
		w.blockFirst = bytes.Clone(key)
	}
	w.block = appendEntry(w.block, key, value)
	w.blockEntries++
	w.entries++

	if len(w.block) >= w.opts.BlockSize {
		return w.flushBlock()
	}
	return nil
}

func (w *Writer) flushBlock() error {
	if w.blockEntries == 0 {
		return nil
	}
	frame, err := frameBlock(w.block, w.opts.Compression)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	w.index = append(w.index, blockHandle{
		firstKey: w.blockFirst,
		offset:   w.offset,
		length:   uint64(len(frame)),
		entries:  w.blockEntries,
	})
	w.offset += uint64(len(frame))
	w.block = w.block[:0]
	w.blockEntries = 0
	return nil
}

// Finish flushes the last block and writes the index and footer. It does
// not close the underlying writer.
func (w *Writer) Finish() error {
	if w.done {
		return kv.ErrClosed
	}
	w.done = true

	if err := w.flushBlock(); err != nil {
		return err
	}

	idx := binary.AppendUvarint(nil, uint64(len(w.index)))
	for _, h := range w.index {
		idx = appendHandle(idx, h)
	}
	frame, err := frameBlock(idx, CompressionNone)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return err
	}

	f := footer{
		compression: w.opts.Compression,
		indexOffset: w.offset,
		indexLength: uint64(len(frame)),
		entries:     w.entries,
	}
	_, err = w.w.Write(f.encode())
	return err
}

// Entries returns the number of entries added so far.
func (w *Writer) Entries() uint64 { return w.entries }

// Copy writes every entry of table into a new table on w and returns the
// number of entries written.
func Copy(w io.Writer, table kv.Table, optFns ...func(*Options)) (uint64, error) {
	c, err := table.NewCursor()
	if err != nil {
		return 0, err
	}
	defer c.Close()

	tw := NewWriter(w, optFns...)
	for {
		ok, err := c.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		value, err := c.Value()
		if err != nil {
			return 0, err
		}
		if err := tw.Add(c.Key(), value); err != nil {
			return 0, err
		}
	}
	if err := tw.Finish(); err != nil {
		return 0, err
	}
	return tw.Entries(), nil
}
