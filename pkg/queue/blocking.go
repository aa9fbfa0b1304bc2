package queue

import (
	"context"
	"sync"
	"time"

	"github.com/kpengk/BaseUtils/errors"
)

// BlockingQueue is an unbounded, thread-safe FIFO. Producers never block;
// consumers block until an item is available.
type BlockingQueue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []T
	head     int // index of the front item in items
	closed   bool

	stats   *Statistics
	metrics *queueMetrics
}

// NewBlocking creates an unbounded blocking queue. It only fails when metrics
// registration was requested and failed.
func NewBlocking[T any](options ...Option[T]) (*BlockingQueue[T], error) {
	opts := applyOptions(options...)

	q := &BlockingQueue[T]{stats: NewStatistics()}
	q.notEmpty = sync.NewCond(&q.mu)

	if opts.metricsReg != nil {
		metrics, err := newQueueMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "BlockingQueue", "NewBlocking", "metrics registration")
		}
		q.metrics = metrics
	}

	return q, nil
}

func (q *BlockingQueue[T]) lenLocked() int {
	return len(q.items) - q.head
}

// Enqueue appends item and wakes one waiting consumer. It returns ErrClosed after
// Close.
func (q *BlockingQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.WrapInvalid(ErrClosed, "BlockingQueue", "Enqueue", "enqueue")
	}
	q.items = append(q.items, item)
	q.recordLocked(true)
	q.mu.Unlock()

	q.notEmpty.Signal()
	return nil
}

// Dequeue blocks until an item is available or ctx is done. Items buffered before
// Close are still delivered; an empty closed queue returns ErrClosed.
func (q *BlockingQueue[T]) Dequeue(ctx context.Context) (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	err := waitUntil(ctx, &q.mu, q.notEmpty, func() bool { return q.lenLocked() > 0 || q.closed })
	if err != nil {
		q.stats.Timeout()
		if q.metrics != nil {
			q.metrics.timeouts.Inc()
		}
		return zero, err
	}
	if q.lenLocked() == 0 {
		return zero, ErrClosed
	}
	return q.popLocked(), nil
}

// DequeueFor waits up to timeout for an item. It reports false on timeout without
// consuming anything.
func (q *BlockingQueue[T]) DequeueFor(timeout time.Duration) (T, bool) {
	ctx, cancel := timeoutContext(timeout)
	defer cancel()

	item, err := q.Dequeue(ctx)
	return item, err == nil
}

// TryDequeue returns the front item without waiting, or ErrWouldBlock.
func (q *BlockingQueue[T]) TryDequeue() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		var zero T
		if q.closed {
			return zero, ErrClosed
		}
		return zero, ErrWouldBlock
	}
	return q.popLocked(), nil
}

func (q *BlockingQueue[T]) popLocked() T {
	var zero T
	item := q.items[q.head]
	q.items[q.head] = zero // Clear for GC
	q.head++

	// Reclaim the consumed prefix once it dominates the slice
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	q.recordLocked(false)
	return item
}

func (q *BlockingQueue[T]) recordLocked(enqueue bool) {
	size := q.lenLocked()
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
		q.metrics.updateSize(size, 0)
	}
}

// Len returns the number of queued items.
func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Empty reports whether the queue holds no items.
func (q *BlockingQueue[T]) Empty() bool {
	return q.Len() == 0
}

// Clear discards every queued item.
func (q *BlockingQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	q.stats.UpdateSize(0)
	if q.metrics != nil {
		q.metrics.updateSize(0, 0)
	}
}

// Stats returns queue statistics (always available).
func (q *BlockingQueue[T]) Stats() *Statistics {
	return q.stats
}

// Close rejects further enqueues and wakes every waiting consumer.
func (q *BlockingQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notEmpty.Broadcast()
	return nil
}
