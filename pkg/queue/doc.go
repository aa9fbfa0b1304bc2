// Package queue provides thread-safe blocking FIFO queues for producer/consumer
// hand-off, with always-on statistics and optional Prometheus metrics.
//
// # Overview
//
// Two queues are provided:
//
//   - BlockingQueue: unbounded. Enqueue never waits; Dequeue waits for an item.
//   - BoundedBlockingQueue: fixed capacity, backed by buffer.CircularQueue.
//     Enqueue waits for room, EnqueueNoWait overwrites the oldest item.
//
// Every waiting operation has three forms: a context-aware form (Dequeue, Enqueue)
// that waits until ctx is done, a timed form (DequeueFor, EnqueueFor) that reports
// success as a bool, and a non-blocking form (TryDequeue, TryEnqueue) that returns
// ErrWouldBlock. ErrWouldBlock is an alias for iox.ErrWouldBlock and is a control
// flow signal, not a failure:
//
//	for {
//		item, err := q.TryDequeue()
//		if queue.IsWouldBlock(err) {
//			backoff.Wait()
//			continue
//		}
//		if err != nil {
//			return err
//		}
//		backoff.Reset()
//		handle(item)
//	}
//
// # Quick Start
//
//	q, err := queue.NewBounded[*Frame](1024,
//		queue.WithMetrics[*Frame](registry, "ingest"),
//		queue.WithDropCallback[*Frame](func(f *Frame) { f.Release() }),
//	)
//	if err != nil {
//		return err
//	}
//
//	// producer that must never stall
//	_ = q.EnqueueNoWait(frame)
//
//	// consumer
//	ctx, cancel := context.WithTimeout(ctx, time.Second)
//	defer cancel()
//	frame, err := q.Dequeue(ctx)
//
// # Wakeups
//
// Waiters park on sync.Cond. A push signals one consumer, a pop signals one
// producer, Clear wakes every producer, and Close wakes everyone. Cancellation of a
// waiting context is delivered through context.AfterFunc, which broadcasts while
// holding the queue mutex so a cancelled waiter always observes it.
//
// # Close
//
// Close rejects further enqueues. Consumers keep receiving buffered items and get
// ErrClosed once the queue is drained.
//
// # Observability
//
// Stats() returns counters for enqueues, dequeues, overruns and timeouts plus the
// current and maximum size. WithMetrics additionally exports the same values to a
// metric.MetricsRegistry under the "queue" subsystem, labelled by component.
package queue
