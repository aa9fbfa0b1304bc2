package queue

import (
	"context"
	"sync"
	"time"

	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/pkg/buffer"
)

// DefaultBoundedCapacity matches the capacity used when none is configured.
const DefaultBoundedCapacity = 15

// BoundedBlockingQueue is a thread-safe FIFO with a fixed capacity, backed by a
// buffer.CircularQueue. Enqueue waits for room; EnqueueNoWait never waits and
// overwrites the oldest item instead.
type BoundedBlockingQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond // signalled after a push
	notFull  *sync.Cond // signalled after a pop or clear
	items    *buffer.CircularQueue[T]
	closed   bool

	stats   *Statistics
	metrics *queueMetrics
	onDrop  DropCallback[T]
}

// NewBounded creates a bounded blocking queue holding at most capacity items.
func NewBounded[T any](capacity int, options ...Option[T]) (*BoundedBlockingQueue[T], error) {
	items, err := buffer.NewCircularQueue[T](capacity)
	if err != nil {
		return nil, err
	}

	opts := applyOptions(options...)
	q := &BoundedBlockingQueue[T]{
		items:  items,
		stats:  NewStatistics(),
		onDrop: opts.dropCallback,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	if opts.metricsReg != nil {
		metrics, err := newQueueMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "BoundedBlockingQueue", "NewBounded", "metrics registration")
		}
		q.metrics = metrics
	}

	return q, nil
}

// Enqueue waits until the queue has room or ctx is done, then appends item and
// wakes one consumer.
func (q *BoundedBlockingQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.Lock()

	err := waitUntil(ctx, &q.mu, q.notFull, func() bool { return !q.items.Full() || q.closed })
	if err != nil {
		q.recordTimeoutLocked()
		q.mu.Unlock()
		return err
	}
	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(ErrClosed, "BoundedBlockingQueue", "Enqueue", "enqueue")
	}

	q.items.Push(item)
	q.recordLocked(true)
	q.mu.Unlock()

	q.notEmpty.Signal()
	return nil
}

// EnqueueFor waits up to timeout for room. It reports false when the queue stayed
// full (or was closed) and the item was not added.
func (q *BoundedBlockingQueue[T]) EnqueueFor(item T, timeout time.Duration) bool {
	ctx, cancel := timeoutContext(timeout)
	defer cancel()

	return q.Enqueue(ctx, item) == nil
}

// TryEnqueue appends item if there is room, otherwise returns ErrWouldBlock.
func (q *BoundedBlockingQueue[T]) TryEnqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(ErrClosed, "BoundedBlockingQueue", "TryEnqueue", "enqueue")
	}
	if q.items.Full() {
		q.mu.Unlock()
		return ErrWouldBlock
	}
	q.items.Push(item)
	q.recordLocked(true)
	q.mu.Unlock()

	q.notEmpty.Signal()
	return nil
}

// EnqueueNoWait appends item immediately. If the queue is full the oldest item is
// overwritten, the overrun counter grows and the drop callback (if any) receives
// the lost item. Producers that must never block use this at the cost of losing
// data under sustained overload.
func (q *BoundedBlockingQueue[T]) EnqueueNoWait(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(ErrClosed, "BoundedBlockingQueue", "EnqueueNoWait", "enqueue")
	}

	var dropped T
	overwrote := q.items.Full()
	if overwrote {
		dropped, _ = q.items.Front()
	}
	q.items.Push(item)
	q.recordLocked(true)
	if overwrote {
		q.stats.Overrun()
		if q.metrics != nil {
			q.metrics.overruns.Inc()
		}
	}
	q.mu.Unlock()

	q.notEmpty.Signal()
	if overwrote && q.onDrop != nil {
		q.onDrop(dropped)
	}
	return nil
}

// Dequeue waits until an item is available or ctx is done, then removes it and
// wakes one producer. Items buffered before Close are still delivered; an empty
// closed queue returns ErrClosed.
func (q *BoundedBlockingQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	q.mu.Lock()

	err := waitUntil(ctx, &q.mu, q.notEmpty, func() bool { return !q.items.Empty() || q.closed })
	if err != nil {
		q.recordTimeoutLocked()
		q.mu.Unlock()
		return zero, err
	}
	if q.items.Empty() {
		q.mu.Unlock()
		return zero, ErrClosed
	}

	item, _ := q.items.Pop()
	q.recordLocked(false)
	q.mu.Unlock()

	q.notFull.Signal()
	return item, nil
}

// DequeueFor waits up to timeout for an item. It reports false on timeout without
// consuming anything.
func (q *BoundedBlockingQueue[T]) DequeueFor(timeout time.Duration) (T, bool) {
	ctx, cancel := timeoutContext(timeout)
	defer cancel()

	item, err := q.Dequeue(ctx)
	return item, err == nil
}

// TryDequeue removes the front item without waiting, or returns ErrWouldBlock.
func (q *BoundedBlockingQueue[T]) TryDequeue() (T, error) {
	var zero T
	q.mu.Lock()

	if q.items.Empty() {
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, ErrClosed
		}
		return zero, ErrWouldBlock
	}

	item, _ := q.items.Pop()
	q.recordLocked(false)
	q.mu.Unlock()

	q.notFull.Signal()
	return item, nil
}

func (q *BoundedBlockingQueue[T]) recordLocked(enqueue bool) {
	size := q.items.Len()
	if enqueue {
		q.stats.Enqueue()
	} else {
		q.stats.Dequeue()
	}
	q.stats.UpdateSize(int64(size))

	if q.metrics != nil {
		if enqueue {
			q.metrics.enqueues.Inc()
		} else {
			q.metrics.dequeues.Inc()
		}
		q.metrics.updateSize(size, q.items.Cap())
	}
}

func (q *BoundedBlockingQueue[T]) recordTimeoutLocked() {
	q.stats.Timeout()
	if q.metrics != nil {
		q.metrics.timeouts.Inc()
	}
}

// Len returns the number of queued items.
func (q *BoundedBlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Cap returns the maximum number of queued items.
func (q *BoundedBlockingQueue[T]) Cap() int {
	return q.items.Cap() // immutable, no lock needed
}

// Empty reports whether the queue holds no items.
func (q *BoundedBlockingQueue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Empty()
}

// Full reports whether the queue is at capacity.
func (q *BoundedBlockingQueue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Full()
}

// Overrun returns how many items EnqueueNoWait has overwritten since creation or
// the last Clear.
func (q *BoundedBlockingQueue[T]) Overrun() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Overrun()
}

// Clear discards every queued item, resets the overrun counter and wakes all
// waiting producers.
func (q *BoundedBlockingQueue[T]) Clear() {
	q.mu.Lock()
	q.items.Clear()
	q.stats.UpdateSize(0)
	if q.metrics != nil {
		q.metrics.updateSize(0, q.items.Cap())
	}
	q.mu.Unlock()

	q.notFull.Broadcast()
}

// Stats returns queue statistics (always available).
func (q *BoundedBlockingQueue[T]) Stats() *Statistics {
	return q.stats
}

// Close rejects further enqueues and wakes every waiter.
func (q *BoundedBlockingQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	return nil
}
