// Package shard stores one sub-database of a termexp database in a kv.Table.
//
// A Writer maintains document records, per-term statistics, spelling words
// and metadata; a Shard reads them back and produces the term lists used by
// query expansion: document term lists (leaves carrying shard statistics),
// the all-terms list, the spelling list and metadata keys.
package shard
