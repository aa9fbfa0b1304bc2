package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"code.hybscloud.com/atomix"

	"github.com/kpengk/BaseUtils/errors"
)

// TaskReply tells the pool what to do with a task after it ran.
type TaskReply int

const (
	// Done removes the task from its group.
	Done TaskReply = iota

	// Retry keeps the task at the front of its group. The group goes to the back of
	// the ready queue, so other groups run before the task is tried again.
	Retry
)

// String returns "done" or "retry".
func (r TaskReply) String() string {
	switch r {
	case Done:
		return "done"
	case Retry:
		return "retry"
	default:
		return fmt.Sprintf("TaskReply(%d)", int(r))
	}
}

// Task is a unit of work posted to a SequentialPool.
type Task func() TaskReply

// fifo is a growable FIFO that reclaims its consumed prefix.
type fifo[T any] struct {
	items []T
	head  int
}

func (q *fifo[T]) len() int { return len(q.items) - q.head }

func (q *fifo[T]) push(v T) { q.items = append(q.items, v) }

func (q *fifo[T]) front() T { return q.items[q.head] }

func (q *fifo[T]) pop() T {
	var zero T
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 32 && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v
}

func (q *fifo[T]) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// taskGroup holds the pending tasks of one group. While a worker runs the front
// task, the task stays in the queue and the group is absent from the ready queue.
type taskGroup struct {
	tasks   fifo[Task]
	running bool
}

// SequentialPool runs tasks on a fixed set of goroutines while keeping tasks of the
// same group strictly sequential: they run in post order and never overlap.
// Different groups run in parallel.
//
// Groups waiting for a worker sit in a ready FIFO. A group is in that FIFO at most
// once, and only while it has pending tasks and none of them is running.
type SequentialPool[K comparable] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	groups   map[K]*taskGroup
	ready    fifo[K]
	pending  int
	stopping bool
	dropping bool // immediate shutdown in progress

	workers      int
	wg           sync.WaitGroup
	shutdownMode ShutdownMode
	logger       *slog.Logger
	metrics      *Metrics

	// Statistics (atomic)
	posted    atomix.Uint64
	completed atomix.Uint64
	retried   atomix.Uint64
	dropped   atomix.Uint64
	panics    atomix.Uint64
}

// NewSequentialPool starts a pool with the given number of workers. A non-positive
// count uses runtime.NumCPU().
func NewSequentialPool[K comparable](workers int, opts ...PoolOption) *SequentialPool[K] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	o := &poolOptions{
		shutdownMode: DefaultShutdownMode,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	p := &SequentialPool[K]{
		groups:       make(map[K]*taskGroup),
		workers:      workers,
		shutdownMode: o.shutdownMode,
		logger:       o.logger,
	}
	p.cond = sync.NewCond(&p.mu)

	if o.metricsRegistry != nil && o.metricsPrefix != "" {
		metrics, err := newMetrics(o.metricsRegistry, o.metricsPrefix)
		if err != nil {
			o.metricsRegistry.RecordError(o.metricsPrefix, err)
			p.logger.Warn("Worker pool metrics disabled", "component", o.metricsPrefix, "error", err)
		} else {
			p.metrics = metrics
		}
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}

	p.logger.Debug("Sequential pool started", "workers", workers, "shutdown_mode", p.shutdownMode)
	return p
}

// Post appends task to group. If the group had no pending tasks it becomes ready
// and one idle worker is woken.
func (p *SequentialPool[K]) Post(group K, task Task) error {
	if task == nil {
		return errors.WrapInvalid(ErrNilTask, "SequentialPool", "Post", "validate task")
	}

	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return errors.WrapInvalid(ErrPoolStopped, "SequentialPool", "Post", "post task")
	}

	g, ok := p.groups[group]
	if !ok {
		g = &taskGroup{}
		p.groups[group] = g
	}
	becameReady := g.tasks.len() == 0
	g.tasks.push(task)
	if becameReady {
		p.ready.push(group)
	}
	p.pending++
	p.updatePendingLocked()
	p.mu.Unlock()

	p.posted.AddAcqRel(1)
	if p.metrics != nil {
		p.metrics.posted.Inc()
	}
	if becameReady {
		p.cond.Signal()
	}
	return nil
}

// PostFunc posts fn as a task that always reports Done.
func (p *SequentialPool[K]) PostFunc(group K, fn func()) error {
	if fn == nil {
		return errors.WrapInvalid(ErrNilTask, "SequentialPool", "PostFunc", "validate task")
	}
	return p.Post(group, func() TaskReply {
		fn()
		return Done
	})
}

// TaskSize returns the number of tasks not yet completed, including tasks that are
// currently running. The value is a snapshot.
func (p *SequentialPool[K]) TaskSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Workers returns the number of worker goroutines.
func (p *SequentialPool[K]) Workers() int {
	return p.workers
}

// Shutdown stops accepting posts and waits for the workers to exit. Graceful runs
// every posted task first; Immediate abandons queued tasks and only waits for the
// ones already running. Calling Shutdown again waits for the same exit; a later
// Immediate call still abandons whatever a Graceful shutdown had left queued.
func (p *SequentialPool[K]) Shutdown(mode ShutdownMode) {
	p.mu.Lock()
	first := !p.stopping
	p.stopping = true
	dropped := 0
	if mode == Immediate && !p.dropping {
		p.dropping = true
		dropped = p.dropQueuedLocked()
	}
	p.mu.Unlock()
	p.cond.Broadcast()

	if first {
		p.logger.Debug("Sequential pool stopping", "mode", mode, "pending", p.TaskSize())
	}
	if dropped > 0 {
		p.logger.Warn("Sequential pool dropped queued tasks", "dropped", dropped)
	}

	p.wg.Wait()
}

// WaitForDone shuts the pool down with the configured shutdown mode.
func (p *SequentialPool[K]) WaitForDone() {
	p.Shutdown(p.shutdownMode)
}

// Close shuts the pool down with the configured shutdown mode. It implements
// io.Closer and always returns nil.
func (p *SequentialPool[K]) Close() error {
	p.WaitForDone()
	return nil
}

// dropQueuedLocked discards every task that is not running and empties the ready
// queue. It returns the number of discarded tasks.
func (p *SequentialPool[K]) dropQueuedLocked() int {
	dropped := 0
	for key, g := range p.groups {
		if g.running {
			// keep the in-flight front task
			keep := g.tasks.head + 1
			dropped += len(g.tasks.items) - keep
			clear(g.tasks.items[keep:])
			g.tasks.items = g.tasks.items[:keep]
			continue
		}
		dropped += g.tasks.len()
		delete(p.groups, key)
	}
	p.ready.reset()
	p.recordDroppedLocked(dropped)
	return dropped
}

func (p *SequentialPool[K]) recordDroppedLocked(n int) {
	if n == 0 {
		return
	}
	p.pending -= n
	p.updatePendingLocked()
	p.dropped.AddAcqRel(uint64(n))
	if p.metrics != nil {
		p.metrics.dropped.Add(float64(n))
	}
}

func (p *SequentialPool[K]) updatePendingLocked() {
	if p.metrics != nil {
		p.metrics.pending.Set(float64(p.pending))
	}
}

// run is the worker loop. It exits once the pool is stopping and no group is
// ready; a group still running elsewhere is finished by the worker running it.
func (p *SequentialPool[K]) run() {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		for p.ready.len() == 0 && !p.stopping {
			p.cond.Wait()
		}
		if p.ready.len() == 0 {
			p.mu.Unlock()
			return
		}

		key := p.ready.pop()
		g := p.groups[key]
		g.running = true
		task := g.tasks.front()
		p.mu.Unlock()

		reply := p.execute(key, task)

		p.mu.Lock()
		g.running = false
		if reply == Done {
			g.tasks.pop()
			p.pending--
			p.updatePendingLocked()
		}
		if p.dropping {
			n := g.tasks.len()
			g.tasks.reset()
			p.recordDroppedLocked(n)
		}

		if g.tasks.len() > 0 {
			p.ready.push(key)
			// this worker loops back and may take another group first
			p.cond.Signal()
		} else {
			delete(p.groups, key)
		}
	}
}

// execute runs one task, converting a panic into Done.
func (p *SequentialPool[K]) execute(group K, task Task) (reply TaskReply) {
	start := time.Now()
	label := ""

	defer func() {
		if r := recover(); r != nil {
			p.panics.AddAcqRel(1)
			p.logger.Error("Task panic recovered",
				"group", fmt.Sprint(group),
				"panic", r,
				"stack", string(debug.Stack()))
			reply = Done
			label = "panic"
			if p.metrics != nil {
				p.metrics.panics.Inc()
			}
		}

		switch reply {
		case Done:
			p.completed.AddAcqRel(1)
			if p.metrics != nil {
				p.metrics.completed.Inc()
			}
		default:
			reply = Retry
			p.retried.AddAcqRel(1)
			if p.metrics != nil {
				p.metrics.retried.Inc()
			}
		}

		if p.metrics != nil {
			if label == "" {
				label = reply.String()
			}
			p.metrics.taskDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		}
	}()

	return task()
}

// Stats returns current pool statistics
func (p *SequentialPool[K]) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Pending:   p.TaskSize(),
		Posted:    p.posted.LoadAcquire(),
		Completed: p.completed.LoadAcquire(),
		Retried:   p.retried.LoadAcquire(),
		Dropped:   p.dropped.LoadAcquire(),
		Panics:    p.panics.LoadAcquire(),
	}
}

// PoolStats represents worker pool statistics
type PoolStats struct {
	Workers   int    `json:"workers"`
	Pending   int    `json:"pending"`
	Posted    uint64 `json:"posted"`
	Completed uint64 `json:"completed"`
	Retried   uint64 `json:"retried"`
	Failed    uint64 `json:"failed,omitempty"`
	Dropped   uint64 `json:"dropped"`
	Panics    uint64 `json:"panics"`
}
