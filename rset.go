package termexp

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// RSet is a set of documents judged relevant to a query, identified by
// global document id.
//
// The zero value is an empty set ready to use.
type RSet struct {
	docs *roaring.Bitmap
}

// NewRSet returns a set holding dids.
func NewRSet(dids ...uint32) *RSet {
	r := &RSet{}
	for _, did := range dids {
		r.Add(did)
	}
	return r
}

func (r *RSet) bitmap() *roaring.Bitmap {
	if r.docs == nil {
		r.docs = roaring.New()
	}
	return r.docs
}

// Add marks did relevant.
func (r *RSet) Add(did uint32) { r.bitmap().Add(did) }

// Remove unmarks did.
func (r *RSet) Remove(did uint32) { r.bitmap().Remove(did) }

// Contains reports whether did is in the set.
func (r *RSet) Contains(did uint32) bool {
	return r.docs != nil && r.docs.Contains(did)
}

// Len returns the number of documents in the set.
func (r *RSet) Len() int {
	if r == nil || r.docs == nil {
		return 0
	}
	return int(r.docs.GetCardinality())
}

// Empty reports whether the set holds no documents.
func (r *RSet) Empty() bool { return r.Len() == 0 }

// All yields the documents in ascending order.
func (r *RSet) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if r == nil || r.docs == nil {
			return
		}
		it := r.docs.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
