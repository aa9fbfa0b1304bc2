package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"code.hybscloud.com/atomix"

	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/pkg/queue"
)

// Pool runs independent tasks on a fixed set of goroutines that share one FIFO.
// Tasks start in submission order, but nothing orders them once they run; use
// SequentialPool when tasks of a group must not overlap.
type Pool struct {
	tasks   *queue.BlockingQueue[job]
	workers int
	logger  *slog.Logger
	metrics *Metrics

	// ctx is handed to every task and cancelled by Terminate.
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	stopped      bool
	pending      int
	wg           sync.WaitGroup
	shutdownMode ShutdownMode

	submitted atomix.Uint64
	completed atomix.Uint64
	failed    atomix.Uint64
	dropped   atomix.Uint64
	panics    atomix.Uint64
}

// job is one queued task. Exactly one of run or fail is called.
type job struct {
	run  func(ctx context.Context) error
	fail func(err error)
}

// NewPool starts a pool with the given number of workers. A non-positive count
// uses runtime.NumCPU(). Close honours WithShutdownMode: Graceful maps to
// WaitForDone and Immediate to Terminate.
func NewPool(workers int, opts ...PoolOption) *Pool {
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

	// without options the unbounded queue cannot fail
	tasks, _ := queue.NewBlocking[job]()

	p := &Pool{
		tasks:        tasks,
		workers:      workers,
		logger:       o.logger,
		shutdownMode: o.shutdownMode,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

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

	p.logger.Debug("Pool started", "workers", workers)
	return p
}

// Submit queues fn and returns a Future for its result. It fails with
// ErrPoolStopped once WaitForDone or Terminate has been called.
func Submit[R any](p *Pool, fn func(ctx context.Context) (R, error)) (*Future[R], error) {
	if fn == nil {
		return nil, errors.WrapInvalid(ErrNilTask, "Pool", "Submit", "validate task")
	}

	f := &Future[R]{done: make(chan struct{})}
	j := job{
		run: func(ctx context.Context) error {
			v, err := fn(ctx)
			f.resolve(v, err)
			return err
		},
		fail: func(err error) {
			var zero R
			f.resolve(zero, err)
		},
	}
	if err := p.enqueue(j, "Submit"); err != nil {
		return nil, err
	}
	return f, nil
}

// Post queues fn without a result.
func (p *Pool) Post(fn func()) error {
	if fn == nil {
		return errors.WrapInvalid(ErrNilTask, "Pool", "Post", "validate task")
	}
	return p.enqueue(job{
		run: func(context.Context) error {
			fn()
			return nil
		},
		fail: func(error) {},
	}, "Post")
}

func (p *Pool) enqueue(j job, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return errors.WrapInvalid(ErrPoolStopped, "Pool", op, "submit task")
	}
	if err := p.tasks.Enqueue(j); err != nil {
		return errors.WrapInvalid(ErrPoolStopped, "Pool", op, "submit task")
	}
	p.pending++
	p.updatePendingLocked()

	p.submitted.AddAcqRel(1)
	if p.metrics != nil {
		p.metrics.posted.Inc()
	}
	return nil
}

// TaskSize returns the number of submitted tasks that have not finished,
// including running ones.
func (p *Pool) TaskSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// WaitForDone stops accepting tasks, runs every task already queued and waits for
// the workers to exit.
func (p *Pool) WaitForDone() {
	if p.stop() {
		p.logger.Debug("Pool draining", "pending", p.TaskSize())
	}
	_ = p.tasks.Close()
	p.wg.Wait()
	p.cancel()
}

// Terminate stops accepting tasks, drops every queued task and cancels the
// context of running ones, then waits for the workers to exit. Futures of dropped
// tasks resolve with ErrTaskDropped. It returns the number of dropped tasks.
func (p *Pool) Terminate() int {
	p.stop()

	dropped := 0
	for {
		j, err := p.tasks.TryDequeue()
		if err != nil {
			break
		}
		j.fail(errors.WrapInvalid(ErrTaskDropped, "Pool", "Terminate", "drop queued task"))
		dropped++
	}
	if dropped > 0 {
		p.mu.Lock()
		p.pending -= dropped
		p.updatePendingLocked()
		p.mu.Unlock()

		p.dropped.AddAcqRel(uint64(dropped))
		if p.metrics != nil {
			p.metrics.dropped.Add(float64(dropped))
		}
		p.logger.Warn("Pool dropped queued tasks", "dropped", dropped)
	}

	_ = p.tasks.Close()
	p.cancel()
	p.wg.Wait()
	return dropped
}

// Close stops the pool with the configured shutdown mode. It implements io.Closer
// and always returns nil.
func (p *Pool) Close() error {
	if p.shutdownMode == Immediate {
		p.Terminate()
		return nil
	}
	p.WaitForDone()
	return nil
}

// stop marks the pool stopped and reports whether this call did it.
func (p *Pool) stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	first := !p.stopped
	p.stopped = true
	return first
}

func (p *Pool) updatePendingLocked() {
	if p.metrics != nil {
		p.metrics.pending.Set(float64(p.pending))
	}
}

// run takes tasks until the queue is closed and empty.
func (p *Pool) run() {
	defer p.wg.Done()

	for {
		j, err := p.tasks.Dequeue(context.Background())
		if err != nil {
			return
		}
		p.execute(j)

		p.mu.Lock()
		p.pending--
		p.updatePendingLocked()
		p.mu.Unlock()
	}
}

// execute runs one task, resolving its future with ErrTaskPanicked on panic.
func (p *Pool) execute(j job) {
	start := time.Now()
	label := "done"

	defer func() {
		if r := recover(); r != nil {
			p.panics.AddAcqRel(1)
			p.logger.Error("Task panic recovered",
				"panic", r,
				"stack", string(debug.Stack()))
			label = "panic"
			if p.metrics != nil {
				p.metrics.panics.Inc()
			}
			j.fail(errors.WrapFatal(fmt.Errorf("%w: %v", ErrTaskPanicked, r), "Pool", "execute", "run task"))
		}

		switch label {
		case "done":
			p.completed.AddAcqRel(1)
			if p.metrics != nil {
				p.metrics.completed.Inc()
			}
		case "error":
			p.failed.AddAcqRel(1)
		}
		if p.metrics != nil {
			p.metrics.taskDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		}
	}()

	if err := j.run(p.ctx); err != nil {
		label = "error"
	}
}

// Stats returns current pool statistics. Posted counts submitted tasks; Failed
// counts tasks whose function returned an error.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		Pending:   p.TaskSize(),
		Posted:    p.submitted.LoadAcquire(),
		Completed: p.completed.LoadAcquire(),
		Failed:    p.failed.LoadAcquire(),
		Dropped:   p.dropped.LoadAcquire(),
		Panics:    p.panics.LoadAcquire(),
	}
}

// Future is the pending result of a task submitted with Submit.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Done is closed once the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished, was dropped or ctx is done.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

func (f *Future[R]) resolve(v R, err error) {
	f.value, f.err = v, err
	close(f.done)
}
