package buffer

import (
	"github.com/kpengk/BaseUtils/errors"
)

// CircularQueue is a fixed-capacity FIFO that overwrites its oldest element when a
// push arrives while full. One extra slot marks the full state, so the backing
// slice holds maxItems+1 elements.
//
// CircularQueue is not safe for concurrent use; see pkg/queue for the locked
// bounded blocking queue built on top of it.
type CircularQueue[T any] struct {
	items   []T
	head    int // index of the oldest element
	tail    int // index of the next write
	overrun int64
}

// NewCircularQueue creates a queue that retains at most maxItems elements.
func NewCircularQueue[T any](maxItems int) (*CircularQueue[T], error) {
	if maxItems <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCapacity, "CircularQueue", "NewCircularQueue",
			"validate capacity")
	}
	return &CircularQueue[T]{items: make([]T, maxItems+1)}, nil
}

// Push appends item. When the queue is full the oldest element is discarded and
// the overrun counter is incremented.
func (q *CircularQueue[T]) Push(item T) {
	q.items[q.tail] = item
	q.tail = (q.tail + 1) % len(q.items)

	if q.tail == q.head {
		var zero T
		q.items[q.head] = zero // Clear for GC
		q.head = (q.head + 1) % len(q.items)
		q.overrun++
	}
}

// Front returns the oldest element without removing it.
func (q *CircularQueue[T]) Front() (T, error) {
	if q.Empty() {
		var zero T
		return zero, errors.WrapInvalid(errors.ErrEmpty, "CircularQueue", "Front", "read front")
	}
	return q.items[q.head], nil
}

// At returns the i-th element counting from the oldest.
func (q *CircularQueue[T]) At(i int) (T, error) {
	if i < 0 || i >= q.Len() {
		var zero T
		return zero, errors.WrapInvalid(errors.ErrIndexOutOfRange, "CircularQueue", "At", "index element")
	}
	return q.items[(q.head+i)%len(q.items)], nil
}

// Pop removes and returns the oldest element.
func (q *CircularQueue[T]) Pop() (T, error) {
	var zero T
	if q.Empty() {
		return zero, errors.WrapInvalid(errors.ErrEmpty, "CircularQueue", "Pop", "pop front")
	}
	item := q.items[q.head]
	q.items[q.head] = zero // Clear for GC
	q.head = (q.head + 1) % len(q.items)
	return item, nil
}

// Len returns the number of stored elements.
func (q *CircularQueue[T]) Len() int {
	if q.tail >= q.head {
		return q.tail - q.head
	}
	return len(q.items) - (q.head - q.tail)
}

// Cap returns the maximum number of elements the queue retains.
func (q *CircularQueue[T]) Cap() int {
	return len(q.items) - 1
}

// Empty reports whether the queue holds no elements.
func (q *CircularQueue[T]) Empty() bool {
	return q.head == q.tail
}

// Full reports whether the next Push will overwrite the oldest element.
func (q *CircularQueue[T]) Full() bool {
	return (q.tail+1)%len(q.items) == q.head
}

// Overrun returns how many elements have been overwritten since creation or the
// last Clear.
func (q *CircularQueue[T]) Overrun() int64 {
	return q.overrun
}

// Clear removes all elements and resets the overrun counter.
func (q *CircularQueue[T]) Clear() {
	clear(q.items)
	q.head = 0
	q.tail = 0
	q.overrun = 0
}

// Drain removes and returns every element, oldest first.
func (q *CircularQueue[T]) Drain() []T {
	n := q.Len()
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for !q.Empty() {
		item, _ := q.Pop()
		out = append(out, item)
	}
	return out
}
