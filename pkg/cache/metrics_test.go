package cache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/metric"
)

func TestLRU_WithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	c := newLRU[string, int](t, 2, WithMetrics[string, int](registry, "memo"))
	require.NotNil(t, c.metrics)

	c.Put("A", 1)
	c.Put("B", 2)
	c.Get("A")
	c.Get("missing")
	c.Put("C", 3)
	c.Erase("A")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.misses))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.metrics.puts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.erases))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.evictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.size))

	// Statistics track the same operations independently
	summary := c.Stats().Summary()
	assert.Equal(t, int64(1), summary.Hits)
	assert.Equal(t, int64(3), summary.Puts)
	assert.Equal(t, int64(2), summary.MaxSize)
	assert.Equal(t, 0.5, summary.HitRatio)
}

func TestLRU_WithMetricsDuplicateComponent(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	_ = newLRU[string, int](t, 2, WithMetrics[string, int](registry, "memo"))

	_, err := NewLRU[string, int](2, WithMetrics[string, int](registry, "memo"))
	require.Error(t, err)
}

func TestLRU_WithMetricsIgnoresEmptyPrefix(t *testing.T) {
	c := newLRU[string, int](t, 2, WithMetrics[string, int](metric.NewMetricsRegistry(), ""))
	assert.Nil(t, c.metrics)
}

func TestLRU_WithMetricsFailureRollsBack(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	blocker := prometheus.NewGauge(prometheus.GaugeOpts{Name: "blocker", Help: "b"})
	require.NoError(t, registry.RegisterGauge("memo", "cache_size", blocker))

	_, err := NewLRU[string, int](2, WithMetrics[string, int](registry, "memo"))
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.Metrics.ComponentsRegistered.WithLabelValues("memo")))

	require.True(t, registry.Unregister("memo", "cache_size"))
	c := newLRU[string, int](t, 2, WithMetrics[string, int](registry, "memo"))
	assert.NotNil(t, c.metrics)
}
