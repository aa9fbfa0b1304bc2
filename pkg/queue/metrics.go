package queue

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kpengk/BaseUtils/metric"
)

// queueMetrics holds Prometheus metrics for queue operations.
type queueMetrics struct {
	enqueues prometheus.Counter
	dequeues prometheus.Counter
	overruns prometheus.Counter
	timeouts prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

func newQueueMetrics(registry *metric.MetricsRegistry, prefix string) (*queueMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "queue",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metric.Namespace,
			Subsystem:   "queue",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &queueMetrics{
		enqueues:    counter("enqueues_total", "Total number of items accepted by the queue"),
		dequeues:    counter("dequeues_total", "Total number of items consumed from the queue"),
		overruns:    counter("overruns_total", "Total number of items overwritten by the drop-oldest policy"),
		timeouts:    counter("timeouts_total", "Total number of timed or cancelled waits that gave up"),
		size:        gauge("size", "Current number of items in the queue"),
		utilization: gauge("utilization", "Queue utilization (0.0 to 1.0), zero for unbounded queues"),
	}

	if err := registry.RegisterAll(prefix,
		metric.Registration{Name: "queue_enqueues", Collector: m.enqueues},
		metric.Registration{Name: "queue_dequeues", Collector: m.dequeues},
		metric.Registration{Name: "queue_overruns", Collector: m.overruns},
		metric.Registration{Name: "queue_timeouts", Collector: m.timeouts},
		metric.Registration{Name: "queue_size", Collector: m.size},
		metric.Registration{Name: "queue_utilization", Collector: m.utilization},
	); err != nil {
		return nil, err
	}

	return m, nil
}

// updateSize sets the current size and, for bounded queues, utilization.
func (m *queueMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	if capacity > 0 {
		m.utilization.Set(float64(size) / float64(capacity))
	}
}
