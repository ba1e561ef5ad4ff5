// Package kv defines the sorted key/value table contract that term lists are
// built on, plus an in-memory implementation.
//
// Backends live in subpackages:
//
//   - kv/sstable: immutable block-compressed table files
//   - kv/badger: embedded Badger database
//   - kv/dynamo: DynamoDB table with a binary sort key
//
// A Handle adds shared ownership on top of a table so iterators can keep it
// open after the owning database has been closed.
package kv
