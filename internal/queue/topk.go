// Package queue provides a bounded heap for top-K selection.
package queue

import "slices"

// TopK keeps the best capacity items seen so far.
//
// The heap is ordered worst-first so that the item to evict is always at the
// root. A capacity <= 0 keeps every item.
type TopK[T any] struct {
	better   func(a, b T) bool
	capacity int
	items    []T
}

// NewTopK returns an empty TopK. better reports whether a ranks before b.
func NewTopK[T any](capacity int, better func(a, b T) bool) *TopK[T] {
	return &TopK[T]{better: better, capacity: capacity}
}

// Len returns the number of items held.
func (q *TopK[T]) Len() int { return len(q.items) }

// Full reports whether the queue holds capacity items.
func (q *TopK[T]) Full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

// Worst returns the item that would be evicted next.
func (q *TopK[T]) Worst() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Push offers an item. It reports whether the item was kept.
func (q *TopK[T]) Push(item T) bool {
	if !q.Full() {
		q.items = append(q.items, item)
		q.siftUp(len(q.items) - 1)
		return true
	}
	if !q.better(item, q.items[0]) {
		return false
	}
	q.items[0] = item
	q.siftDown(0)
	return true
}

// Sorted returns the items best-first. The queue is left unchanged.
func (q *TopK[T]) Sorted() []T {
	out := slices.Clone(q.items)
	slices.SortFunc(out, func(a, b T) int {
		switch {
		case q.better(a, b):
			return -1
		case q.better(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// less orders the heap worst-first.
func (q *TopK[T]) less(i, j int) bool {
	return q.better(q.items[j], q.items[i])
}

func (q *TopK[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *TopK[T]) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		child := left
		if right := left + 1; right < n && q.less(right, left) {
			child = right
		}
		if !q.less(child, i) {
			return
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}
