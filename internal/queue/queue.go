// Package queue provides the thread-safe buffering used between the
// per-frame detection path and the batched storage writers.
package queue

import "sync"

// Queue is a generic thread-safe FIFO queue.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// DrainUpTo removes and returns at most n items from the front of the
// queue, preserving order. Storage writers use this to bound batch
// sizes.
func (q *Queue[T]) DrainUpTo(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || len(q.items) == 0 {
		return nil
	}
	if n > len(q.items) {
		n = len(q.items)
	}

	batch := make([]T, n)
	copy(batch, q.items[:n])
	q.items = q.items[n:]
	return batch
}
