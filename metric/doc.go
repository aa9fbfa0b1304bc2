// Package metric wraps a Prometheus registry for the BaseUtils containers.
//
// Containers never create their own registry. They accept a *MetricsRegistry through a
// WithMetrics option and register their collectors under a component prefix:
//
//	registry := metric.NewMetricsRegistry()
//	q, _ := queue.NewBounded[int](64, queue.WithMetrics[int](registry, "ingest"))
//
// The registry rejects a second registration of the same (component, metric) pair
// with an Invalid error, so two containers sharing a prefix fail loudly at
// construction rather than silently sharing counters.
//
// Server exposes the registry over HTTP with promhttp at the configured path plus a
// /health endpoint.
package metric
