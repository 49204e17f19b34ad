// Package tracing wraps OpenTelemetry span creation so that repository and
// engine methods can start a span without depending on the SDK directly.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the tracer used by StartSpan; call once at startup.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span named spanName, or is a no-op if no tracer has
// been installed (e.g. in unit tests).
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

func activeSpan(ctx context.Context) trace.Span {
	if tracer == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

// GetTraceID returns the active trace id, or "" if there is none.
func GetTraceID(ctx context.Context) string {
	span := activeSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// GetSpanID returns the active span id, or "" if there is none.
func GetSpanID(ctx context.Context) string {
	span := activeSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().SpanID().String()
}

// GetTraceParent returns the W3C traceparent header value for the active span.
func GetTraceParent(ctx context.Context) string {
	span := activeSpan(ctx)
	if span == nil {
		return ""
	}
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	return carrier.Get("traceparent")
}

// ContextFields returns trace_id/span_id log fields for the active span, or
// an empty map if there is none, for attaching to structured log lines the
// way the teacher stack correlates logs with traces.
func ContextFields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	if id := GetTraceID(ctx); id != "" {
		fields["trace_id"] = id
	}
	if id := GetSpanID(ctx); id != "" {
		fields["span_id"] = id
	}
	return fields
}
