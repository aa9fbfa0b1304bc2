// Package baseutils is a small family of generic in-memory building blocks for
// network and pipeline code: buffers, queues, a cache and a worker pool.
//
// # Layout
//
//	pkg/buffer   ByteBuffer (prependable byte buffer), CircularQueue[T] (drop-oldest ring),
//	             ByteRing (fixed byte FIFO that rejects instead of overwriting)
//	pkg/queue    BlockingQueue[T] (unbounded), BoundedBlockingQueue[T] (CircularQueue + conds)
//	pkg/cache    LRU[K,V] over an index arena, with NoLock, MutexLock or SpinLock
//	pkg/worker   SequentialPool[K]: tasks of one group run in order, groups run in parallel;
//	             Pool: shared-FIFO pool returning a Future per task
//	errors       classified errors shared by every package
//	metric       Prometheus registry wrapper and /metrics server
//	config       JSON/YAML configuration for the demo binary
//	cmd/baseutils demo pipeline wiring all of the above
//
// # Concurrency
//
// ByteBuffer, CircularQueue, ByteRing and an LRU with NoLock are single-owner. The blocking
// queues and the pool hold one mutex per instance and park goroutines on sync.Cond;
// context cancellation only bounds a wait, it never corrupts the container.
//
//	producers ──▶ BoundedBlockingQueue ──▶ dispatcher ──▶ SequentialPool[session]
//	                                                        │
//	                                       LRU[session] ◀───┤───▶ journal queue
//	                                            │
//	                                            └─ evictions ──▶ BlockingQueue ──▶ archive Pool
//
// # Errors
//
// Precondition violations (reading past the readable bytes, popping an empty
// queue, posting to a stopped pool) return invalid-class errors from the errors
// package instead of panicking. Timeouts are reported as a false result and
// non-blocking misses as ErrWouldBlock; neither is a failure.
//
// # Observability
//
// Every container keeps always-on atomic statistics. Prometheus metrics are opt-in
// through a WithMetrics option taking a *metric.MetricsRegistry and a component
// prefix; the prefix becomes the component label.
package baseutils
