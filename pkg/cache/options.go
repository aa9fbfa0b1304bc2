package cache

import (
	"github.com/kpengk/BaseUtils/metric"
)

// Option configures an LRU using the functional options pattern.
type Option[K comparable, V any] func(*cacheOptions[K, V])

// cacheOptions holds internal configuration for cache instances.
// Stats are ALWAYS collected; metrics are optional and exposed via WithMetrics.
type cacheOptions[K comparable, V any] struct {
	locker Locker

	// metricsReg is optional; when set, cache stats are also exported to Prometheus
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string

	evictCallback EvictCallback[K, V]
}

// EvictCallback receives each entry removed to make room for a new one.
type EvictCallback[K comparable, V any] func(key K, value V)

// WithLocker selects the lock strategy. A nil locker is ignored.
func WithLocker[K comparable, V any](locker Locker) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		if locker != nil {
			opts.locker = locker
		}
	}
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[K comparable, V any](registry *metric.MetricsRegistry, prefix string) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback called for every capacity eviction. It runs
// after the cache lock is released, so it may use the cache.
func WithEvictionCallback[K comparable, V any](callback EvictCallback[K, V]) Option[K, V] {
	return func(opts *cacheOptions[K, V]) {
		opts.evictCallback = callback
	}
}

func applyOptions[K comparable, V any](options ...Option[K, V]) *cacheOptions[K, V] {
	opts := &cacheOptions[K, V]{
		locker: NoLock{},
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
