package telemetry

import (
	"time"
)

// Metric names emitted per exchange. The names are stable: they form
// the wire contract with the observability backend and must not change
// between releases.
const (
	MetricChatRequest   = "llm.chat.request"
	MetricChatOK        = "llm.chat.ok"
	MetricChatError     = "llm.chat.error"
	MetricChatRefusal   = "llm.chat.refusal"
	MetricChatLatencyMs = "llm.chat.latency_ms"

	MetricTokensPrompt     = "llm.tokens.prompt"
	MetricTokensCompletion = "llm.tokens.completion"
	MetricTokensTotal      = "llm.tokens.total"

	MetricCostTotalUSD = "llm.cost.total_usd"

	MetricHallucinationRisk = "llm.safety.hallucination_risk"
	MetricPerformanceScore  = "llm.safety.performance_score"
	MetricResponseQuality   = "llm.safety.response_quality"
	MetricAbuseDetected     = "llm.safety.abuse_detected"
)

// Kind classifies how a metric value accumulates in the backend.
type Kind string

// Metric kinds.
const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
)

// Tags is the tag set carried by every event.
type Tags struct {
	// Service is the emitting service name.
	Service string

	// Env is the deployment environment.
	Env string

	// Model is the model identifier of the exchange.
	Model string

	// SafeMode reports whether guardrails were active for the exchange.
	SafeMode bool
}

// Event is one outward-facing telemetry record. Events are write-only:
// the pipeline never reads them back.
type Event struct {
	// Name is one of the Metric* constants.
	Name string

	// Kind is the metric kind.
	Kind Kind

	// Value is the increment (counters) or observed value
	// (gauges/histograms).
	Value float64

	// Tags is the full tag set.
	Tags Tags

	// Time is when the event was produced.
	Time time.Time
}

// Counter builds a counter event with value 1.
func Counter(name string, tags Tags) Event {
	return Event{Name: name, Kind: KindCounter, Value: 1, Tags: tags}
}

// Gauge builds a gauge event.
func Gauge(name string, value float64, tags Tags) Event {
	return Event{Name: name, Kind: KindGauge, Value: value, Tags: tags}
}

// Histogram builds a histogram observation event.
func Histogram(name string, value float64, tags Tags) Event {
	return Event{Name: name, Kind: KindHistogram, Value: value, Tags: tags}
}
