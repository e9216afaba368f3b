package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey struct{}

// SetContextLogger stores lg in ctx. When ctx carries a valid span, lg is
// wrapped in a SpanLogger first. A nil lg stores a NoopLogger.
func SetContextLogger(ctx context.Context, lg Logger) context.Context {
	if lg == nil {
		lg = NewNoopLogger()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		lg = NewSpanLogger(lg, NewOtelSpanEventRecorder(span))
	}
	return context.WithValue(ctx, contextKey{}, lg)
}

// FromContext returns the logger stored by SetContextLogger, or a NoopLogger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return NewNoopLogger()
}

// ContextWithKV adds a key-value pair to the logger stored in ctx. The logger
// is not wrapped again, so a SpanLogger stays a single SpanLogger.
func ContextWithKV(ctx context.Context, key string, value any) context.Context {
	return context.WithValue(ctx, contextKey{}, FromContext(ctx).WithKV(key, value))
}
