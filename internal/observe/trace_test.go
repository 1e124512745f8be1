package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestCorrelationIDNoSpan(t *testing.T) {
	t.Parallel()

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID(empty ctx) = %q, want empty", got)
	}
}

func TestCorrelationIDFromSpanContext(t *testing.T) {
	t.Parallel()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if got := CorrelationID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("CorrelationID = %q", got)
	}
}

func TestLoggerWithSpan(t *testing.T) {
	t.Parallel()

	// Without a span the default logger comes back unmodified; with one it
	// must not panic and must return a non-nil logger.
	if Logger(context.Background()) == nil {
		t.Fatal("Logger returned nil")
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	if Logger(ctx) == nil {
		t.Fatal("Logger with span returned nil")
	}
}
