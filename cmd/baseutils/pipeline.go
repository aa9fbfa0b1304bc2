package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kpengk/BaseUtils/config"
	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/metric"
	"github.com/kpengk/BaseUtils/pkg/buffer"
	"github.com/kpengk/BaseUtils/pkg/cache"
	"github.com/kpengk/BaseUtils/pkg/queue"
	"github.com/kpengk/BaseUtils/pkg/worker"
)

// pipeline wires every container of the module into one flow:
//
//	producers -> frames (bounded) -> dispatcher -> pool (group = session)
//	pool task -> sessions (LRU) and journal (bounded, Retry when full)
//	LRU evictions -> evictions (unbounded) -> reporter -> archive pool
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *metric.MetricsRegistry

	sessionIDs []uuid.UUID
	limiter    *rate.Limiter
	frames     *queue.BoundedBlockingQueue[*buffer.ByteBuffer]
	journal    *queue.BoundedBlockingQueue[journalEntry]
	evictions  *queue.BlockingQueue[sessionSummary]
	sessions   *cache.LRU[uuid.UUID, *sessionState]
	pool       *worker.SequentialPool[uuid.UUID]
	archive    *worker.Pool

	produced   atomix.Uint64
	dispatched atomix.Uint64
	malformed  atomix.Uint64
	journaled  uint64 // owned by the journal consumer
	evicted    uint64 // owned by the reporter

	archived      uint64 // owned by the reporter
	archivedBytes uint64 // owned by the reporter
}

// archiveWorkers sizes the pool that encodes evicted session summaries.
const archiveWorkers = 2

// Report summarizes one pipeline run.
type Report struct {
	Produced   uint64             `json:"produced"`
	Dispatched uint64             `json:"dispatched"`
	Malformed  uint64             `json:"malformed"`
	Journaled  uint64             `json:"journaled"`
	Evicted    uint64             `json:"evicted"`
	Archived   uint64             `json:"archived"`
	ArchiveLen uint64             `json:"archive_bytes"`
	Overruns   int64              `json:"overruns"`
	Frames     queue.StatsSummary `json:"frames"`
	Journal    queue.StatsSummary `json:"journal"`
	Sessions   cache.StatsSummary `json:"sessions"`
	Pool       worker.PoolStats   `json:"pool"`
	Archive    worker.PoolStats   `json:"archive"`
	Live       []sessionSummary   `json:"live,omitempty"`
	Elapsed    time.Duration      `json:"elapsed"`
}

func newPipeline(cfg *config.Config, logger *slog.Logger, registry *metric.MetricsRegistry) (*pipeline, error) {
	p := &pipeline{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
	}

	p.sessionIDs = make([]uuid.UUID, cfg.Demo.Sessions)
	for i := range p.sessionIDs {
		p.sessionIDs[i] = uuid.New()
	}

	limit := rate.Inf
	if cfg.Demo.Rate > 0 {
		limit = rate.Limit(cfg.Demo.Rate)
	}
	p.limiter = rate.NewLimiter(limit, max(1, cfg.Demo.Producers))

	var err error
	p.frames, err = queue.NewBounded[*buffer.ByteBuffer](cfg.Queue.Capacity,
		queue.WithMetrics[*buffer.ByteBuffer](registry, "frames"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline", "newPipeline", "create frame queue")
	}

	p.journal, err = queue.NewBounded[journalEntry](cfg.Queue.Capacity,
		queue.WithMetrics[journalEntry](registry, "journal"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline", "newPipeline", "create journal queue")
	}

	p.evictions, err = queue.NewBlocking[sessionSummary](
		queue.WithMetrics[sessionSummary](registry, "evictions"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline", "newPipeline", "create eviction queue")
	}

	locker, err := cache.NewLocker(cache.LockKind(cfg.Cache.Lock))
	if err != nil {
		return nil, err
	}
	if _, ok := locker.(cache.NoLock); ok {
		// pool workers share the cache, so it needs a real lock
		logger.Warn("Cache lock 'none' is unsafe with a worker pool, using mutex")
		locker = &cache.MutexLock{}
	}
	p.sessions, err = cache.NewLRU[uuid.UUID, *sessionState](cfg.Cache.Capacity,
		cache.WithLocker[uuid.UUID, *sessionState](locker),
		cache.WithMetrics[uuid.UUID, *sessionState](registry, "sessions"),
		cache.WithEvictionCallback[uuid.UUID, *sessionState](p.onEvict),
	)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline", "newPipeline", "create session cache")
	}

	mode, err := worker.ParseShutdownMode(cfg.Pool.Shutdown)
	if err != nil {
		return nil, errors.WrapInvalid(err, "pipeline", "newPipeline", "parse shutdown mode")
	}
	p.pool = worker.NewSequentialPool[uuid.UUID](cfg.Pool.Workers,
		worker.WithShutdownMode(mode),
		worker.WithLogger(logger.With("component", "dispatch")),
		worker.WithMetricsRegistry(registry, "dispatch"),
	)
	p.archive = worker.NewPool(archiveWorkers,
		worker.WithLogger(logger.With("component", "archive")),
		worker.WithMetricsRegistry(registry, "archive"),
	)

	return p, nil
}

// onEvict runs outside the cache lock on the goroutine that caused the eviction.
func (p *pipeline) onEvict(id uuid.UUID, st *sessionState) {
	if err := p.evictions.Enqueue(st.summary(id)); err != nil {
		p.logger.Debug("Eviction report dropped", "session", id, "error", err)
	}
}

// run executes the whole pipeline and returns once every stage has drained or
// ctx is cancelled.
func (p *pipeline) run(ctx context.Context) (*Report, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var producers sync.WaitGroup
	for id := 0; id < p.cfg.Demo.Producers; id++ {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return p.produce(gctx, id)
		})
	}

	g.Go(func() error {
		producers.Wait()
		return p.frames.Close()
	})
	g.Go(func() error { return p.dispatch(gctx) })
	g.Go(func() error { return p.consumeJournal(gctx) })
	g.Go(func() error { return p.report(gctx) })

	// an interrupted run still reports what it got through
	err := g.Wait()
	if err != nil && !(ctx.Err() != nil && stderrors.Is(err, ctx.Err())) {
		return nil, err
	}

	return p.buildReport(time.Since(start)), nil
}

// produce generates frames for a rotating set of sessions, paced by the shared
// limiter. In no-wait mode frames
// overwrite the oldest queued frame; otherwise the producer spins on TryEnqueue
// with iox backoff.
func (p *pipeline) produce(ctx context.Context, id int) error {
	payload := make([]byte, p.cfg.Demo.PayloadSize)
	for i := range payload {
		payload[i] = byte('a' + id%26)
	}

	backoff := iox.Backoff{}
	for i := 0; i < p.cfg.Demo.MessagesPerProducer; i++ {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.WrapTransient(err, "pipeline", "produce", "wait for rate limiter")
		}

		session := p.sessionIDs[(id+i*p.cfg.Demo.Producers)%len(p.sessionIDs)]
		b, err := encodeFrame(frame{session: session, seq: uint64(i), payload: payload})
		if err != nil {
			return err
		}

		if p.cfg.Queue.NoWait {
			if err := p.frames.EnqueueNoWait(b); err != nil {
				return err
			}
			p.produced.AddAcqRel(1)
			continue
		}

		for {
			err := p.frames.TryEnqueue(b)
			if err == nil {
				break
			}
			if !queue.IsWouldBlock(err) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			backoff.Wait()
		}
		backoff.Reset()
		p.produced.AddAcqRel(1)
	}
	return nil
}

// dispatch decodes frames and posts one task per frame to the session's group.
// Once the frame queue is drained it shuts the pool down and closes the queues
// the pool feeds.
func (p *pipeline) dispatch(ctx context.Context) error {
	defer func() {
		_ = p.journal.Close()
		_ = p.evictions.Close()
	}()

	for {
		b, err := p.frames.Dequeue(ctx)
		if stderrors.Is(err, queue.ErrClosed) {
			// a retrying task never finishes once the journal consumer is gone
			stop := context.AfterFunc(ctx, func() { p.pool.Shutdown(worker.Immediate) })
			p.pool.WaitForDone()
			stop()
			return nil
		}
		if err != nil {
			p.pool.Shutdown(worker.Immediate)
			return err
		}

		f, err := decodeFrame(b)
		if err != nil {
			p.malformed.AddAcqRel(1)
			p.registry.RecordError("dispatch", err)
			p.logger.Warn("Malformed frame", "error", err)
			continue
		}

		if err := p.pool.Post(f.session, p.applyTask(f)); err != nil {
			p.pool.Shutdown(worker.Immediate)
			return err
		}
		p.dispatched.AddAcqRel(1)
	}
}

// applyTask updates the session exactly once, then journals the frame. A full
// journal makes the task retry the journal step only.
func (p *pipeline) applyTask(f frame) worker.Task {
	applied := false
	return func() worker.TaskReply {
		if !applied {
			st, ok := p.sessions.Get(f.session)
			if !ok {
				st = &sessionState{}
				p.sessions.Put(f.session, st)
			}
			st.apply(f)
			applied = true
		}

		err := p.journal.TryEnqueue(journalEntry{session: f.session, seq: f.seq})
		if queue.IsWouldBlock(err) {
			return worker.Retry
		}
		if err != nil {
			p.logger.Debug("Journal closed, entry lost", "session", f.session, "seq", f.seq)
		}
		return worker.Done
	}
}

func (p *pipeline) consumeJournal(ctx context.Context) error {
	for {
		_, err := p.journal.Dequeue(ctx)
		if stderrors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		p.journaled++
	}
}

// report logs every evicted session and hands its summary to the archive pool
// for encoding. Archive results are collected once the eviction queue closes.
func (p *pipeline) report(ctx context.Context) error {
	var encoded []*worker.Future[[]byte]
	for {
		s, err := p.evictions.Dequeue(ctx)
		if stderrors.Is(err, queue.ErrClosed) {
			p.archive.WaitForDone()
			p.collectArchive(encoded)
			return nil
		}
		if err != nil {
			p.archive.Terminate()
			return err
		}
		p.evicted++
		p.logger.Debug("Session evicted",
			"session", s.Session,
			"frames", s.Frames,
			"bytes", s.Bytes,
			"last_seq", s.LastSeq)

		f, err := worker.Submit(p.archive, func(context.Context) ([]byte, error) {
			return json.Marshal(s)
		})
		if err != nil {
			p.archive.Terminate()
			return err
		}
		encoded = append(encoded, f)
	}
}

// collectArchive sums the encoded summaries. Every future has resolved once the
// archive pool is drained.
func (p *pipeline) collectArchive(encoded []*worker.Future[[]byte]) {
	for _, f := range encoded {
		data, err := f.Wait(context.Background())
		if err != nil {
			p.registry.RecordError("archive", err)
			p.logger.Warn("Session summary not archived", "error", err)
			continue
		}
		p.archived++
		p.archivedBytes += uint64(len(data))
	}
}

func (p *pipeline) buildReport(elapsed time.Duration) *Report {
	r := &Report{
		Produced:   p.produced.LoadAcquire(),
		Dispatched: p.dispatched.LoadAcquire(),
		Malformed:  p.malformed.LoadAcquire(),
		Journaled:  p.journaled,
		Evicted:    p.evicted,
		Archived:   p.archived,
		ArchiveLen: p.archivedBytes,
		Overruns:   p.frames.Stats().Overruns(),
		Frames:     p.frames.Stats().Summary(),
		Journal:    p.journal.Stats().Summary(),
		Sessions:   p.sessions.Stats().Summary(),
		Pool:       p.pool.Stats(),
		Archive:    p.archive.Stats(),
		Elapsed:    elapsed,
	}
	for _, id := range p.sessions.Keys() {
		if st, ok := p.sessions.Peek(id); ok {
			r.Live = append(r.Live, st.summary(id))
		}
	}
	return r
}

// String renders the headline numbers for logs.
func (r *Report) String() string {
	return fmt.Sprintf("produced=%d dispatched=%d journaled=%d evicted=%d overruns=%d live=%d elapsed=%s",
		r.Produced, r.Dispatched, r.Journaled, r.Evicted, r.Overruns, len(r.Live), r.Elapsed)
}
