package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kpengk/BaseUtils/metric"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	puts      prometheus.Counter
	erases    prometheus.Counter
	evictions prometheus.Counter

	size prometheus.Gauge
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &cacheMetrics{
		hits:      counter("hits_total", "Total number of cache hits"),
		misses:    counter("misses_total", "Total number of cache misses"),
		puts:      counter("puts_total", "Total number of cache put operations"),
		erases:    counter("erases_total", "Total number of cache erase operations"),
		evictions: counter("evictions_total", "Total number of cache evictions"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in cache",
		}),
	}

	err := registry.RegisterAll(prefix,
		metric.Registration{Name: "cache_hits", Collector: m.hits},
		metric.Registration{Name: "cache_misses", Collector: m.misses},
		metric.Registration{Name: "cache_puts", Collector: m.puts},
		metric.Registration{Name: "cache_erases", Collector: m.erases},
		metric.Registration{Name: "cache_evictions", Collector: m.evictions},
		metric.Registration{Name: "cache_size", Collector: m.size},
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	m.hits.Inc()
}

func (m *cacheMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *cacheMetrics) recordPut() {
	m.puts.Inc()
}

func (m *cacheMetrics) recordErase() {
	m.erases.Inc()
}

func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
}

// updateSize sets the current cache size.
func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}
