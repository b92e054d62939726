package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordInvocation records one node invocation with its duration and
	// error status.
	RecordInvocation(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordRun records a run reaching a terminal status.
	RecordRun(ctx context.Context, status string, duration time.Duration)

	// RecordQueueDepth records the work-queue depth observed at dispatch.
	RecordQueueDepth(ctx context.Context, depth int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	invocations       metric.Int64Counter
	invocationLatency metric.Float64Histogram
	invocationErrors  metric.Int64Counter
	runs              metric.Int64Counter
	runLatency        metric.Float64Histogram
	queueDepth        metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the OTel instruments on first use.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pyre")

	invocations, err := meter.Int64Counter("pyre.invocations",
		metric.WithDescription("Number of node invocations"),
	)
	if err != nil {
		return nil, err
	}

	invocationLatency, err := meter.Float64Histogram("pyre.invocation.latency_ms",
		metric.WithDescription("Node invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	invocationErrors, err := meter.Int64Counter("pyre.invocation.errors",
		metric.WithDescription("Number of failed node invocations"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("pyre.runs",
		metric.WithDescription("Number of graph runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("pyre.run.latency_ms",
		metric.WithDescription("Graph run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Histogram("pyre.queue.depth",
		metric.WithDescription("Work-queue depth observed at dispatch"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		invocations:       invocations,
		invocationLatency: invocationLatency,
		invocationErrors:  invocationErrors,
		runs:              runs,
		runLatency:        runLatency,
		queueDepth:        queueDepth,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If instrument creation fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordInvocation records one node invocation.
func (m *otelMetrics) RecordInvocation(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("node_id", nodeID),
	}

	m.invocations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.invocationLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.invocationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRun records a run reaching a terminal status.
func (m *otelMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("status", status),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordQueueDepth records the queue depth observed at dispatch.
func (m *otelMetrics) RecordQueueDepth(ctx context.Context, depth int64) {
	m.queueDepth.Record(ctx, depth)
}
