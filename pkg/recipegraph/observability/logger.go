// Package observability provides structured logging, metrics, and tracing
// for recipe compilation and execution.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Metrics and tracing are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and acceptor fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "main agent")
//	enriched.Info("doing work") // includes run_id, acceptor
func EnrichLogger(logger *slog.Logger, runID, acceptor string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("acceptor", acceptor),
	)
}

// LogCompileComplete logs a successful recipe compilation.
func LogCompileComplete(logger *slog.Logger, acceptorID int64, tag string, planLen, layers int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("recipe compiled",
		slog.Int64("acceptor_id", acceptorID),
		slog.String("tag", tag),
		slog.Int("plan_len", planLen),
		slog.Int("layers", layers),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCompileError logs a failed recipe compilation.
func LogCompileError(logger *slog.Logger, acceptorID int64, err error) {
	if logger == nil {
		return
	}
	logger.Warn("recipe compilation failed",
		slog.Int64("acceptor_id", acceptorID),
		slog.String("error", err.Error()),
	)
}

// LogRecipeStart logs the start of a recipe run.
func LogRecipeStart(logger *slog.Logger, runID, acceptor string) {
	if logger == nil {
		return
	}
	logger.Info("recipe run starting",
		slog.String("run_id", runID),
		slog.String("acceptor", acceptor),
	)
}

// LogRecipeComplete logs successful recipe completion.
func LogRecipeComplete(logger *slog.Logger, runID string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("recipe run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogRecipeError logs a halted recipe run.
func LogRecipeError(logger *slog.Logger, runID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("recipe run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID int64, name string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.Int64("node_id", nodeID),
		slog.String("node", name),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID int64, name string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.Int64("node_id", nodeID),
		slog.String("node", name),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, nodeID int64, name string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.Int64("node_id", nodeID),
		slog.String("node", name),
		slog.String("error", err.Error()),
	)
}

// LogSnapshot logs a saved graph snapshot.
func LogSnapshot(logger *slog.Logger, project, label string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("project", project),
		slog.String("label", label),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs a snapshot failure.
func LogSnapshotError(logger *slog.Logger, project, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("project", project),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
