package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("recipegraph")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRecipeSpan starts a span for one recipe run.
	StartRecipeSpan(ctx context.Context, slot, runID string) (context.Context, trace.Span)

	// StartNodeSpan starts a span for a node execution, as a child of the recipe span.
	StartNodeSpan(ctx context.Context, nodeID int64, name string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartRecipeSpan(ctx context.Context, slot, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "recipegraph.recipe",
		trace.WithAttributes(
			attribute.String("recipe.slot", slot),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartNodeSpan(ctx context.Context, nodeID int64, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "recipegraph.node",
		trace.WithAttributes(
			attribute.Int64("node.id", nodeID),
			attribute.String("node.name", name),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
