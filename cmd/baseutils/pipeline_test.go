package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/config"
	"github.com/kpengk/BaseUtils/metric"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Queue.Capacity = 4
	cfg.Cache.Capacity = 2
	cfg.Cache.Lock = "spin"
	cfg.Pool.Workers = 3
	cfg.Demo.Producers = 3
	cfg.Demo.MessagesPerProducer = 50
	cfg.Demo.Sessions = 5
	cfg.Demo.PayloadSize = 8
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func runPipeline(t *testing.T, cfg *config.Config) *Report {
	t.Helper()
	require.NoError(t, cfg.Validate())

	p, err := newPipeline(cfg, testLogger(), metric.NewMetricsRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := p.run(ctx)
	require.NoError(t, err)
	require.NoError(t, ctx.Err(), "pipeline did not drain before the deadline")
	return report
}

func TestPipeline_DeliversEveryFrame(t *testing.T) {
	cfg := testConfig()
	report := runPipeline(t, cfg)

	total := uint64(cfg.Demo.Producers * cfg.Demo.MessagesPerProducer)
	assert.Equal(t, total, report.Produced)
	assert.Equal(t, total, report.Dispatched)
	assert.Equal(t, total, report.Journaled)
	assert.Zero(t, report.Malformed)
	assert.Zero(t, report.Overruns)

	assert.Equal(t, total, report.Pool.Posted)
	assert.Equal(t, total, report.Pool.Completed)
	assert.Zero(t, report.Pool.Pending)
	assert.Zero(t, report.Pool.Dropped)

	assert.Equal(t, int64(total), report.Frames.Enqueues)
	assert.Equal(t, int64(total), report.Journal.Dequeues)

	// 5 sessions rotate through a cache of 2
	assert.Positive(t, report.Evicted)
	assert.Equal(t, uint64(report.Sessions.Evictions), report.Evicted)
	assert.LessOrEqual(t, len(report.Live), cfg.Cache.Capacity)

	// every evicted summary is encoded by the archive pool
	assert.Equal(t, report.Evicted, report.Archived)
	assert.Equal(t, report.Evicted, report.Archive.Completed)
	assert.Positive(t, report.ArchiveLen)
	assert.Zero(t, report.Archive.Dropped)
}

func TestPipeline_ReportDoesNotTouchSessionStats(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Capacity = 8
	p, err := newPipeline(cfg, testLogger(), metric.NewMetricsRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report, err := p.run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Live, cfg.Demo.Sessions)

	// one lookup per applied frame, none from building the report
	lookups := p.sessions.Stats().Hits() + p.sessions.Stats().Misses()
	assert.Equal(t, int64(report.Dispatched), lookups)
	before := p.sessions.Keys()

	again := p.buildReport(report.Elapsed)
	assert.Equal(t, lookups, p.sessions.Stats().Hits()+p.sessions.Stats().Misses())
	assert.Equal(t, before, p.sessions.Keys(), "building a report must not reorder the cache")
	assert.Equal(t, report.Sessions.Hits, again.Sessions.Hits)
	assert.Equal(t, report.Sessions.Misses, again.Sessions.Misses)
}

func TestPipeline_NoWaitAccountsForOverruns(t *testing.T) {
	cfg := testConfig()
	cfg.Queue.NoWait = true
	cfg.Demo.MessagesPerProducer = 500
	report := runPipeline(t, cfg)

	total := uint64(cfg.Demo.Producers * cfg.Demo.MessagesPerProducer)
	assert.Equal(t, total, report.Produced)
	assert.Equal(t, total, report.Dispatched+uint64(report.Overruns))
	assert.Equal(t, report.Dispatched, report.Journaled)
}

func TestPipeline_SingleWorkerSingleSession(t *testing.T) {
	cfg := testConfig()
	cfg.Pool.Workers = 1
	cfg.Demo.Sessions = 1
	cfg.Cache.Lock = "mutex"
	report := runPipeline(t, cfg)

	total := uint64(cfg.Demo.Producers * cfg.Demo.MessagesPerProducer)
	assert.Equal(t, total, report.Journaled)
	assert.Zero(t, report.Evicted)
	require.Len(t, report.Live, 1)
	assert.Equal(t, total, report.Live[0].Frames)
	assert.Equal(t, total*uint64(cfg.Demo.PayloadSize), report.Live[0].Bytes)
}

func TestPipeline_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Demo.MessagesPerProducer = 20
	cfg.Demo.Rate = 1000
	report := runPipeline(t, cfg)

	// 60 frames at 1000/s with a burst of 3
	assert.Equal(t, uint64(60), report.Journaled)
	assert.GreaterOrEqual(t, report.Elapsed, 40*time.Millisecond)
}

func TestPipeline_NoLockFallsBackToMutex(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Lock = "none"
	report := runPipeline(t, cfg)

	assert.Equal(t, uint64(cfg.Demo.Producers*cfg.Demo.MessagesPerProducer), report.Journaled)
}

func TestPipeline_ImmediateShutdownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Demo.MessagesPerProducer = 1_000_000
	cfg.Pool.Shutdown = "immediate"

	p, err := newPipeline(cfg, testLogger(), metric.NewMetricsRegistry())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan *Report, 1)
	go func() {
		report, err := p.run(ctx)
		assert.NoError(t, err)
		done <- report
	}()

	select {
	case report := <-done:
		require.NotNil(t, report)
		assert.Less(t, report.Produced, uint64(cfg.Demo.Producers*cfg.Demo.MessagesPerProducer))
		assert.Zero(t, report.Pool.Pending)
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func TestPipeline_InvalidShutdownMode(t *testing.T) {
	cfg := testConfig()
	cfg.Pool.Shutdown = "later"

	_, err := newPipeline(cfg, testLogger(), metric.NewMetricsRegistry())
	require.Error(t, err)
}

func TestPipeline_DuplicateRegistry(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	_, err := newPipeline(testConfig(), testLogger(), registry)
	require.NoError(t, err)

	_, err = newPipeline(testConfig(), testLogger(), registry)
	require.Error(t, err)
}

func TestReport_JSON(t *testing.T) {
	report := runPipeline(t, testConfig())

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "produced")
	assert.Contains(t, decoded, "frames")
	assert.Contains(t, decoded, "sessions")
	assert.Contains(t, decoded, "pool")
	assert.Contains(t, decoded, "archive")
	assert.Contains(t, report.String(), "journaled=150")
}
