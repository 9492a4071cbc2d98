package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Field names added to records logged with a traced context.
const (
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
)

// traceAttrs returns the trace and span IDs of the span in ctx, if any.
func traceAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String(TraceIDKey, sc.TraceID().String()),
		slog.String(SpanIDKey, sc.SpanID().String()),
	}
}
