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

// MetricsRecorder records recipegraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCompile records one acceptor compilation.
	RecordCompile(ctx context.Context, success bool, duration time.Duration)

	// RecordLinkRejected records a rejected link proposal.
	RecordLinkRejected(ctx context.Context, reason string)

	// RecordNodeExecution records a node execution with its duration and error status.
	RecordNodeExecution(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordRecipeRun records a recipe run completion.
	RecordRecipeRun(ctx context.Context, success bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	compiles       metric.Int64Counter
	compileLatency metric.Float64Histogram
	linkRejections metric.Int64Counter
	nodeExecutions metric.Int64Counter
	nodeErrors     metric.Int64Counter
	recipeRuns     metric.Int64Counter
	recipeLatency  metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("recipegraph")

	compiles, err := meter.Int64Counter("recipegraph.compile.count",
		metric.WithDescription("Number of acceptor compilations"),
	)
	if err != nil {
		return nil, err
	}

	compileLatency, err := meter.Float64Histogram("recipegraph.compile.latency_ms",
		metric.WithDescription("Compilation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	linkRejections, err := meter.Int64Counter("recipegraph.link.rejections",
		metric.WithDescription("Number of rejected link proposals"),
	)
	if err != nil {
		return nil, err
	}

	nodeExecutions, err := meter.Int64Counter("recipegraph.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("recipegraph.node.errors",
		metric.WithDescription("Number of failed node executions"),
	)
	if err != nil {
		return nil, err
	}

	recipeRuns, err := meter.Int64Counter("recipegraph.recipe.runs",
		metric.WithDescription("Number of recipe runs"),
	)
	if err != nil {
		return nil, err
	}

	recipeLatency, err := meter.Float64Histogram("recipegraph.recipe.latency_ms",
		metric.WithDescription("Recipe run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		compiles:       compiles,
		compileLatency: compileLatency,
		linkRejections: linkRejections,
		nodeExecutions: nodeExecutions,
		nodeErrors:     nodeErrors,
		recipeRuns:     recipeRuns,
		recipeLatency:  recipeLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
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

// RecordCompile records one acceptor compilation.
func (m *otelMetrics) RecordCompile(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.compiles.Add(ctx, 1, attrs)
	m.compileLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordLinkRejected records a rejected link proposal.
func (m *otelMetrics) RecordLinkRejected(ctx context.Context, reason string) {
	m.linkRejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordNodeExecution records a node execution.
func (m *otelMetrics) RecordNodeExecution(ctx context.Context, kind string, _ time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.nodeExecutions.Add(ctx, 1, attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

// RecordRecipeRun records a recipe run.
func (m *otelMetrics) RecordRecipeRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.recipeRuns.Add(ctx, 1, attrs)
	m.recipeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}
