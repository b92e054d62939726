package pyre

import (
	"log/slog"
	"time"

	"github.com/pyregraph/pyre/pkg/pyre/event"
	"github.com/pyregraph/pyre/pkg/pyre/journal"
	"github.com/pyregraph/pyre/pkg/pyre/observability"
)

// runConfig holds configuration for one run.
type runConfig struct {
	runID       string
	logger      *slog.Logger
	maxInFlight int
	nodeTimeout time.Duration
	failFast    bool
	journal     journal.Store
	bus         event.Bus
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	tracing     bool
}

// defaultRunConfig returns the default run configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// RunOption configures run behavior.
type RunOption func(*runConfig)

// WithRunID sets the run identifier. A UUID is generated when unset.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithLogger sets the run logger. The scheduler enriches it with run_id
// and node_id per invocation. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxInFlight bounds the number of concurrently executing
// invocations. Zero, the default, means unlimited.
func WithMaxInFlight(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

// WithNodeTimeout bounds each invocation's wall-clock time. An
// invocation that exceeds it is recorded as failed with a TimeoutError;
// its goroutine is not force-terminated but sees its context cancelled.
// Zero, the default, disables the timeout.
func WithNodeTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.nodeTimeout = d
		}
	}
}

// WithFailFast cancels the whole run on the first invocation failure,
// equivalent to an implicit Cancel. The default policy is isolation: a
// failure ends only its own execution path.
func WithFailFast() RunOption {
	return func(c *runConfig) {
		c.failFast = true
	}
}

// WithJournal records run and invocation transitions to the store.
// Journal write failures are logged, never fatal to the run.
func WithJournal(store journal.Store) RunOption {
	return func(c *runConfig) {
		c.journal = store
	}
}

// WithEventBus publishes run and invocation lifecycle events to the bus.
func WithEventBus(bus event.Bus) RunOption {
	return func(c *runConfig) {
		c.bus = bus
	}
}

// WithMetrics records OpenTelemetry metrics for the run using the
// global meter provider.
func WithMetrics() RunOption {
	return func(c *runConfig) {
		c.metrics = observability.NewMetricsRecorder()
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing starts OpenTelemetry spans for the run and each
// invocation using the global tracer provider.
func WithTracing() RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager()
		c.tracing = true
	}
}
