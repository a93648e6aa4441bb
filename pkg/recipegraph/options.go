package recipegraph

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph/observability"
)

// DefaultRepeatInterval is how long an identical link diagnostic is
// suppressed after it was reported.
const DefaultRepeatInterval = 5 * time.Second

// graphConfig holds the collaborators of a Graph.
type graphConfig struct {
	oracle         TypeOracle
	sink           Sink
	logger         *slog.Logger
	repeatInterval time.Duration
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
}

func defaultGraphConfig() graphConfig {
	return graphConfig{
		oracle:         ConversionOracle{},
		logger:         slog.Default(),
		repeatInterval: DefaultRepeatInterval,
		metrics:        observability.NoopMetrics{},
		spans:          observability.NoopSpanManager{},
	}
}

// Option configures a Graph.
type Option func(*graphConfig)

// WithOracle sets the type compatibility oracle used when linking.
// Default: ConversionOracle.
func WithOracle(o TypeOracle) Option {
	return func(c *graphConfig) {
		if o != nil {
			c.oracle = o
		}
	}
}

// WithSink sets the diagnostics sink.
// Default: a sink writing to the graph's logger.
func WithSink(s Sink) Option {
	return func(c *graphConfig) {
		c.sink = s
	}
}

// WithLogger sets the structured logger for graph operations.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *graphConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRepeatInterval sets how long identical link diagnostics are suppressed.
// Zero or negative disables suppression.
// Default: DefaultRepeatInterval
func WithRepeatInterval(d time.Duration) Option {
	return func(c *graphConfig) {
		c.repeatInterval = d
	}
}

// WithMetrics enables OpenTelemetry metrics for compilation, linking and execution.
//
// Metrics emitted:
//   - recipegraph.compile.count (counter): compilations by success
//   - recipegraph.compile.latency_ms (histogram): compilation duration
//   - recipegraph.link.rejections (counter): rejected links by reason
//   - recipegraph.node.executions (counter): node executions by kind
//   - recipegraph.node.errors (counter): failed node executions by kind
//   - recipegraph.recipe.runs (counter): recipe runs by success
//   - recipegraph.recipe.latency_ms (histogram): recipe run duration
func WithMetrics(enabled bool) Option {
	return func(c *graphConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans for recipe and node execution.
func WithTracing(enabled bool) Option {
	return func(c *graphConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// runConfig holds configuration for one recipe execution.
type runConfig struct {
	runID  string
	logger *slog.Logger
}

// RunOption configures recipe execution.
type RunOption func(*runConfig)

// WithRunID sets the run identifier used in logs and spans.
// Default: a random UUID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithRunLogger overrides the graph's logger for one run.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
