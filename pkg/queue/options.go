package queue

import (
	"github.com/kpengk/BaseUtils/metric"
)

// Option configures queue behavior using the functional options pattern.
type Option[T any] func(*queueOptions[T])

// queueOptions holds internal configuration for queue instances.
// Stats are ALWAYS collected; metrics are optional.
type queueOptions[T any] struct {
	dropCallback DropCallback[T]

	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// DropCallback is called with each item overwritten by EnqueueNoWait.
type DropCallback[T any] func(item T)

// WithMetrics enables Prometheus metrics export for queue statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *queueOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithDropCallback sets a callback for items lost to the drop-oldest policy of a
// bounded queue. The callback runs after the queue lock is released.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *queueOptions[T]) {
		opts.dropCallback = callback
	}
}

func applyOptions[T any](options ...Option[T]) *queueOptions[T] {
	opts := &queueOptions[T]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
