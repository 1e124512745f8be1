package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counterValue collects metrics and returns the summed value of the named
// Int64 counter, or 0 when absent.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRecordSuggestion(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSuggestion(ctx, "keyword")
	m.RecordSuggestion(ctx, "keyword")
	m.RecordSuggestion(ctx, "silence")

	if got := counterValue(t, reader, "lyssna.suggestions"); got != 3 {
		t.Errorf("suggestions = %d, want 3", got)
	}
}

func TestRecordEntryAndSilence(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEntry(ctx, "user")
	m.RecordEntry(ctx, "assistant")
	m.SilenceEvents.Add(ctx, 1)

	if got := counterValue(t, reader, "lyssna.transcript.entries"); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}
	if got := counterValue(t, reader, "lyssna.silence.events"); got != 1 {
		t.Errorf("silence events = %d, want 1", got)
	}
}

func TestRecordLLMRequest(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordLLMRequest(ctx, "analyze", "ok", 0.42)
	m.RecordLLMRequest(ctx, "summarize", "error", 1.1)

	if got := counterValue(t, reader, "lyssna.llm.requests"); got != 2 {
		t.Errorf("llm requests = %d, want 2", got)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// Histogram must exist once both operations recorded.
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, mx := range sm.Metrics {
			if mx.Name == "lyssna.llm.duration" {
				found = true
			}
		}
	}
	if !found {
		t.Error("lyssna.llm.duration histogram not recorded")
	}
}

func TestAttr(t *testing.T) {
	t.Parallel()

	kv := Attr("op", "save")
	if kv != attribute.String("op", "save") {
		t.Errorf("Attr = %v", kv)
	}
}
