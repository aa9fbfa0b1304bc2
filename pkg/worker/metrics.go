package worker

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kpengk/BaseUtils/metric"
)

// Metrics holds Prometheus metrics for worker pool monitoring
type Metrics struct {
	pending      prometheus.Gauge
	posted       prometheus.Counter
	completed    prometheus.Counter
	retried      prometheus.Counter
	dropped      prometheus.Counter
	panics       prometheus.Counter
	taskDuration *prometheus.HistogramVec
}

// newMetrics creates and registers the pool metrics with the framework's registry
func newMetrics(registry *metric.MetricsRegistry, prefix string) (*Metrics, error) {
	labels := prometheus.Labels{"component": prefix}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "worker",
			Name:        name,
			ConstLabels: labels,
			Help:        help,
		})
	}

	m := &Metrics{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "worker",
			Name:        "pending_tasks",
			ConstLabels: labels,
			Help:        "Tasks posted but not yet completed, including in-flight ones",
		}),
		posted:    counter("posted_total", "Total tasks posted"),
		completed: counter("completed_total", "Total tasks that returned Done"),
		retried:   counter("retried_total", "Total task runs that returned Retry"),
		dropped:   counter("dropped_total", "Total tasks abandoned by an immediate shutdown"),
		panics:    counter("panics_total", "Total task runs that panicked"),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "worker",
			Name:        "task_duration_seconds",
			ConstLabels: labels,
			Help:        "Time spent running one task",
			Buckets:     []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"reply"}),
	}

	if err := registry.RegisterAll(prefix,
		metric.Registration{Name: "worker_pending", Collector: m.pending},
		metric.Registration{Name: "worker_posted", Collector: m.posted},
		metric.Registration{Name: "worker_completed", Collector: m.completed},
		metric.Registration{Name: "worker_retried", Collector: m.retried},
		metric.Registration{Name: "worker_dropped", Collector: m.dropped},
		metric.Registration{Name: "worker_panics", Collector: m.panics},
		metric.Registration{Name: "worker_task_duration", Collector: m.taskDuration},
	); err != nil {
		return nil, err
	}

	return m, nil
}
