package cache

// Key identifies one block of one table.
type Key struct {
	// Table is a process-unique table id.
	Table uint64
	// Block is the block index within the table.
	Block uint32
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. Implementations retain b; the caller must treat
	// it as immutable.
	Set(key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
