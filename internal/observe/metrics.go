// Package observe provides application-wide observability primitives for
// Lyssna: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lyssna metrics.
const meterName = "github.com/vhallgren/lyssna"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// LLMDuration tracks LLM call latency. Use with attribute:
	//   attribute.String("operation", "analyze"|"summarize")
	LLMDuration metric.Float64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram

	// --- Counters ---

	// TranscriptEntries counts appended transcript entries. Use with
	// attribute: attribute.String("speaker", ...)
	TranscriptEntries metric.Int64Counter

	// Suggestions counts generated suggestions. Use with attribute:
	//   attribute.String("trigger", "keyword"|"silence"|"analyze")
	Suggestions metric.Int64Counter

	// SilenceEvents counts silence monitor firings.
	SilenceEvents metric.Int64Counter

	// LLMRequests counts LLM calls. Use with attributes:
	//   attribute.String("operation", ...), attribute.String("status", ...)
	LLMRequests metric.Int64Counter

	// ArchiveOps counts archive store operations. Use with attributes:
	//   attribute.String("op", ...), attribute.String("status", ...)
	ArchiveOps metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live recording sessions (0 or 1
	// for a single-operator deployment, but kept as a gauge regardless).
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote LLM calls and local HTTP handling.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.LLMDuration, err = m.Float64Histogram("lyssna.llm.duration",
		metric.WithDescription("Latency of LLM analyze/summarize calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("lyssna.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.TranscriptEntries, err = m.Int64Counter("lyssna.transcript.entries",
		metric.WithDescription("Total transcript entries appended, by speaker."),
	); err != nil {
		return nil, err
	}
	if met.Suggestions, err = m.Int64Counter("lyssna.suggestions",
		metric.WithDescription("Total suggestions surfaced, by trigger."),
	); err != nil {
		return nil, err
	}
	if met.SilenceEvents, err = m.Int64Counter("lyssna.silence.events",
		metric.WithDescription("Total silence monitor firings."),
	); err != nil {
		return nil, err
	}
	if met.LLMRequests, err = m.Int64Counter("lyssna.llm.requests",
		metric.WithDescription("Total LLM calls by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.ArchiveOps, err = m.Int64Counter("lyssna.archive.ops",
		metric.WithDescription("Total archive operations by op and status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("lyssna.active_sessions",
		metric.WithDescription("Number of live recording sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordEntry increments the transcript entry counter for one speaker.
func (m *Metrics) RecordEntry(ctx context.Context, speaker string) {
	m.TranscriptEntries.Add(ctx, 1,
		metric.WithAttributes(attribute.String("speaker", speaker)))
}

// RecordSuggestion increments the suggestion counter for one trigger kind.
func (m *Metrics) RecordSuggestion(ctx context.Context, trigger string) {
	m.Suggestions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("trigger", trigger)))
}

// RecordLLMRequest records one LLM call with its latency and outcome.
func (m *Metrics) RecordLLMRequest(ctx context.Context, operation, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.LLMRequests.Add(ctx, 1, attrs)
	m.LLMDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordArchiveOp records one archive store operation and its outcome.
func (m *Metrics) RecordArchiveOp(ctx context.Context, op, status string) {
	m.ArchiveOps.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		))
}
