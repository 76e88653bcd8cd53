package partition

import "container/list"

// DirtyQueue is a FIFO of keys awaiting re-indexing. A key is queued at
// most once; pushing a queued key again keeps its original position.
type DirtyQueue[K comparable] struct {
	order   *list.List
	entries map[K]*list.Element
}

// NewDirtyQueue returns an empty queue.
func NewDirtyQueue[K comparable]() *DirtyQueue[K] {
	return &DirtyQueue[K]{
		order:   list.New(),
		entries: make(map[K]*list.Element),
	}
}

// Push enqueues k unless it is already pending. It reports whether k was
// added.
func (q *DirtyQueue[K]) Push(k K) bool {
	if _, ok := q.entries[k]; ok {
		return false
	}
	q.entries[k] = q.order.PushBack(k)
	return true
}

// Pop dequeues the oldest pending key.
func (q *DirtyQueue[K]) Pop() (K, bool) {
	front := q.order.Front()
	if front == nil {
		var zero K
		return zero, false
	}
	k := q.order.Remove(front).(K)
	delete(q.entries, k)
	return k, true
}

// Remove purges k from the queue. It reports whether k was pending.
func (q *DirtyQueue[K]) Remove(k K) bool {
	e, ok := q.entries[k]
	if !ok {
		return false
	}
	q.order.Remove(e)
	delete(q.entries, k)
	return true
}

func (q *DirtyQueue[K]) Contains(k K) bool {
	_, ok := q.entries[k]
	return ok
}

func (q *DirtyQueue[K]) Len() int {
	return len(q.entries)
}

// Clear drops every pending key.
func (q *DirtyQueue[K]) Clear() {
	q.order.Init()
	clear(q.entries)
}
