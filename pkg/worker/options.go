package worker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kpengk/BaseUtils/metric"
)

// ShutdownMode selects what happens to queued tasks when the pool stops.
type ShutdownMode int

const (
	// Graceful runs every task already posted before the workers exit. A task that
	// keeps returning Retry keeps the shutdown waiting.
	Graceful ShutdownMode = iota

	// Immediate lets in-flight tasks finish and abandons every queued task. A
	// retrying in-flight task is abandoned after its current run.
	Immediate
)

// DefaultShutdownMode is used by WaitForDone and Close unless overridden with
// WithShutdownMode.
const DefaultShutdownMode = Graceful

// String returns the configuration name of the mode.
func (m ShutdownMode) String() string {
	switch m {
	case Graceful:
		return "graceful"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("ShutdownMode(%d)", int(m))
	}
}

// ParseShutdownMode maps "graceful" or "immediate" to a ShutdownMode. The empty
// string selects DefaultShutdownMode.
func ParseShutdownMode(s string) (ShutdownMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultShutdownMode, nil
	case "graceful":
		return Graceful, nil
	case "immediate":
		return Immediate, nil
	default:
		return DefaultShutdownMode, fmt.Errorf("%w: %q", ErrUnknownShutdownMode, s)
	}
}

// PoolOption configures a SequentialPool.
type PoolOption func(*poolOptions)

type poolOptions struct {
	shutdownMode    ShutdownMode
	logger          *slog.Logger
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

// WithShutdownMode sets the mode used by WaitForDone and Close.
func WithShutdownMode(mode ShutdownMode) PoolOption {
	return func(o *poolOptions) {
		o.shutdownMode = mode
	}
}

// WithLogger sets the logger used for panics and lifecycle events.
func WithLogger(logger *slog.Logger) PoolOption {
	return func(o *poolOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRegistry configures the pool to register metrics with the framework's registry
func WithMetricsRegistry(registry *metric.MetricsRegistry, prefix string) PoolOption {
	return func(o *poolOptions) {
		o.metricsRegistry = registry
		o.metricsPrefix = prefix
	}
}
