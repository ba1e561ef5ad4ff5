// Package cache provides LRU caching for decompressed table blocks.
//
// A BlockCache can be shared by all sstables of a database through
// sstable.ReadOptions. Keys combine a process-unique table id with the
// block index, and a table drops its entries when closed.
//
// LRU is a single-mutex cache; Sharded spreads keys over 16 of them.
// Both can charge cached bytes against a resource.Controller.
package cache
