package cache

import (
	"github.com/hupe1980/termexp/resource"
)

const numShards = 16

// Sharded spreads blocks over independent LRU shards to reduce lock
// contention when many shards of a database read concurrently.
type Sharded struct {
	shards [numShards]*LRU
}

var _ BlockCache = (*Sharded)(nil)

// NewSharded creates a sharded cache. The capacity is divided evenly across
// all shards.
func NewSharded(capacity int64, rc *resource.Controller) *Sharded {
	shardCapacity := max(capacity/numShards, 1)

	s := &Sharded{}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

// shard picks the LRU for key with a splitmix64 finalizer.
func (s *Sharded) shard(key Key) *LRU {
	x := key.Table*0x9e3779b97f4a7c15 ^ uint64(key.Block)
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return s.shards[x%numShards]
}

// Get implements BlockCache.
func (s *Sharded) Get(key Key) ([]byte, bool) {
	return s.shard(key).Get(key)
}

// Set implements BlockCache.
func (s *Sharded) Set(key Key, b []byte) {
	s.shard(key).Set(key, b)
}

// Invalidate implements BlockCache. It visits every shard.
func (s *Sharded) Invalidate(predicate func(key Key) bool) {
	for _, sh := range s.shards {
		sh.Invalidate(predicate)
	}
}

// Stats implements BlockCache.
func (s *Sharded) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the number of cached bytes over all shards.
func (s *Sharded) Size() int64 {
	var n int64
	for _, sh := range s.shards {
		n += sh.Size()
	}
	return n
}
