package main

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetry installs OTel providers whose output goes to the logger: spans as
// they end, metrics as one summary on shutdown.
type telemetry struct {
	logger *slog.Logger
	tp     *sdktrace.TracerProvider
	mp     *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
}

func newTelemetry(logger *slog.Logger, metrics, tracing bool) *telemetry {
	t := &telemetry{logger: logger}
	if tracing {
		t.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(&spanLogger{logger: logger}))
		otel.SetTracerProvider(t.tp)
	}
	if metrics {
		t.reader = sdkmetric.NewManualReader()
		t.mp = sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))
		otel.SetMeterProvider(t.mp)
	}
	return t
}

func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	if t.reader != nil {
		var rm metricdata.ResourceMetrics
		if err := t.reader.Collect(ctx, &rm); err != nil {
			errs = append(errs, err)
		} else {
			t.logMetrics(rm)
		}
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (t *telemetry) logMetrics(rm metricdata.ResourceMetrics) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				t.logger.Info("metric", slog.String("name", m.Name), slog.Int64("total", total))
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				t.logger.Info("metric",
					slog.String("name", m.Name),
					slog.Uint64("count", count),
					slog.Float64("sum", sum),
				)
			}
		}
	}
}

// spanLogger is a span exporter that writes finished spans to a logger.
type spanLogger struct {
	logger *slog.Logger
}

func (e *spanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []any{
			slog.String("span", s.Name()),
			slog.String("trace_id", s.SpanContext().TraceID().String()),
			slog.Float64("duration_ms", float64(s.EndTime().Sub(s.StartTime()).Microseconds())/1000),
			slog.String("status", s.Status().Code.String()),
		}
		for _, kv := range s.Attributes() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.Debug("span finished", attrs...)
	}
	return nil
}

func (e *spanLogger) Shutdown(context.Context) error { return nil }
