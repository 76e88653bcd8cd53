package spatial

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// MinQueue is a priority queue that pops the value with the smallest key.
// Trees use it for best-first traversal.
type MinQueue[K constraints.Float, V any] struct {
	items queueItems[K, V]
}

// Push adds v with priority key.
func (q *MinQueue[K, V]) Push(key K, v V) {
	heap.Push(&q.items, queueItem[K, V]{key: key, value: v})
}

// Pop removes and returns the value with the smallest key.
func (q *MinQueue[K, V]) Pop() (V, K) {
	it := heap.Pop(&q.items).(queueItem[K, V])
	return it.value, it.key
}

// Peek returns the smallest key without removing it.
func (q *MinQueue[K, V]) Peek() K {
	return q.items[0].key
}

func (q *MinQueue[K, V]) Len() int { return len(q.items) }

type (
	queueItems[K constraints.Float, V any] []queueItem[K, V]
	queueItem[K constraints.Float, V any]  struct {
		key   K
		value V
	}
)

func (h queueItems[K, V]) Len() int           { return len(h) }
func (h queueItems[K, V]) Less(i, j int) bool { return h[i].key < h[j].key }
func (h queueItems[K, V]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *queueItems[K, V]) Push(x any)        { *h = append(*h, x.(queueItem[K, V])) }
func (h *queueItems[K, V]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
