// Package sstable implements an immutable, block-compressed sorted table.
//
// Tables are produced by Writer (or Copy from any kv.Table) and read through
// Table, which implements kv.Table. Data blocks may be compressed with LZ4 or
// ZSTD; the block index is held in memory and accounted against a
// resource.Controller when one is supplied.
package sstable
