package queue

import (
	"sync"
)

// Queue is a mutex-guarded FIFO list shared by many producers.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items in order.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Len returns the number of items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty reports whether there are no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Items returns a copy of the current contents, oldest first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Filter returns a copy of the items matching keep, oldest first.
func (q *Queue[T]) Filter(keep func(T) bool) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []T
	for _, it := range q.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// RemoveFunc deletes every item matching drop and returns how many went.
func (q *Queue[T]) RemoveFunc(drop func(T) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, it := range q.items {
		if !drop(it) {
			kept = append(kept, it)
		}
	}
	removed := len(q.items) - len(kept)
	var zero T
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = zero
	}
	q.items = kept
	return removed
}
