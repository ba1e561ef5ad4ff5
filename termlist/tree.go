package termlist

import "container/heap"

// MergeFunc combines two term lists into one, taking ownership of both.
type MergeFunc func(left, right TermList) TermList

// Build combines lists into a single merge tree using merge (typically NewOr
// or NewFreqAdderOr).
//
// The two smallest lists by ApproxSize are merged first, so large lists end
// up near the root and are compared less often. Build takes ownership of the
// lists. An empty input yields an empty list.
func Build(lists []TermList, merge MergeFunc) TermList {
	switch len(lists) {
	case 0:
		return NewSlice(nil)
	case 1:
		return lists[0]
	}

	h := make(sizeHeap, 0, len(lists))
	for i, tl := range lists {
		h = append(h, sizedList{list: tl, size: tl.ApproxSize(), seq: i})
	}
	heap.Init(&h)

	seq := len(lists)
	for h.Len() > 1 {
		a := heap.Pop(&h).(sizedList)
		b := heap.Pop(&h).(sizedList)
		merged := merge(a.list, b.list)
		heap.Push(&h, sizedList{list: merged, size: a.size + b.size, seq: seq})
		seq++
	}
	return h[0].list
}

type sizedList struct {
	list TermList
	size uint64
	seq  int
}

type sizeHeap []sizedList

func (h sizeHeap) Len() int { return len(h) }
func (h sizeHeap) Less(i, j int) bool {
	if h[i].size != h[j].size {
		return h[i].size < h[j].size
	}
	return h[i].seq < h[j].seq
}
func (h sizeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *sizeHeap) Push(x any)   { *h = append(*h, x.(sizedList)) }
func (h *sizeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
