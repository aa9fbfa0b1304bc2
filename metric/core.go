package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the Prometheus namespace shared by every metric in this module.
const Namespace = "baseutils"

// Metrics contains the registry-wide metrics that are not tied to one container
type Metrics struct {
	ComponentsRegistered *prometheus.GaugeVec
	ErrorsTotal          *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ComponentsRegistered: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "registry",
				Name:      "collectors",
				Help:      "Number of collectors registered per component",
			},
			[]string{"component"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by component and class",
			},
			[]string{"component", "class"},
		),
	}
}
