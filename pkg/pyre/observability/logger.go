// Package observability provides structured logging, OpenTelemetry
// metrics, and tracing for graph runs.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds run context to a logger. Returns a new logger with
// run_id and node_id fields.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a graph run.
func LogRunStart(logger *slog.Logger, runID string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("run_id", runID),
	)
}

// LogRunFinished logs a run reaching its terminal status.
func LogRunFinished(logger *slog.Logger, runID, status string, durationMs float64, invocations int, failures int) {
	if logger == nil {
		return
	}
	logger.Info("graph run finished",
		slog.String("run_id", runID),
		slog.String("status", status),
		slog.Float64("duration_ms", durationMs),
		slog.Int("invocations", invocations),
		slog.Int("failures", failures),
	)
}

// LogInvocationStart logs an invocation being dispatched.
func LogInvocationStart(logger *slog.Logger, nodeID, invocationID string) {
	if logger == nil {
		return
	}
	logger.Debug("invocation starting",
		slog.String("node_id", nodeID),
		slog.String("invocation_id", invocationID),
	)
}

// LogInvocationComplete logs a successful invocation.
func LogInvocationComplete(logger *slog.Logger, nodeID, invocationID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("invocation completed",
		slog.String("node_id", nodeID),
		slog.String("invocation_id", invocationID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogInvocationError logs a failed invocation.
func LogInvocationError(logger *slog.Logger, nodeID, invocationID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("invocation failed",
		slog.String("node_id", nodeID),
		slog.String("invocation_id", invocationID),
		slog.String("error", err.Error()),
	)
}
