package anomaly

import (
	"time"

	"llmobs-hq/copilot/pkg/costs"
)

// Metric identifies a tracked rolling-window metric.
type Metric string

// Tracked metrics.
const (
	MetricLatencyMs  Metric = "latency_ms"
	MetricErrorRatio Metric = "error_ratio"
	MetricCostUSD    Metric = "cost_usd"
	MetricTokens     Metric = "tokens"
)

// Summary is the per-exchange observation fed into the detector. It
// carries only the aggregable facts of an exchange, not the exchange
// itself.
type Summary struct {
	// Latency is the end-to-end latency of the exchange.
	Latency time.Duration

	// Err reports whether the exchange failed (provider error or
	// degraded scoring).
	Err bool

	// Cost is the total estimated cost of the exchange.
	Cost costs.MicroUSD

	// Tokens is the total token volume (prompt + completion).
	Tokens int

	// Time is when the exchange completed. Zero means "now".
	Time time.Time
}

// PredictiveAlert is an advisory signal that a tracked metric, if its
// current trend continues, will cross its configured threshold within
// the projection horizon. It never blocks or alters pipeline outputs.
type PredictiveAlert struct {
	// Metric is the tracked metric projected to breach.
	Metric Metric

	// CurrentValue is the metric's value in the most recent bucket.
	CurrentValue float64

	// ProjectedValue is the trend-projected value at Horizon from the
	// most recent observation.
	ProjectedValue float64

	// Threshold is the configured breach threshold.
	Threshold float64

	// Horizon is how far ahead the projection looks.
	Horizon time.Duration
}

// Aggregates are the running rolling-window statistics over all
// buckets currently inside the window.
type Aggregates struct {
	// Count is the number of observations in the window.
	Count int64

	// MeanLatency is the mean exchange latency.
	MeanLatency time.Duration

	// P95Latency is the 95th-percentile exchange latency, computed from
	// per-bucket latency reservoirs. Exact while each bucket holds fewer
	// observations than the reservoir bound, sampled beyond that.
	P95Latency time.Duration

	// ErrorRatio is failed observations over total observations.
	ErrorRatio float64

	// MeanCost is the mean cost per exchange.
	MeanCost costs.MicroUSD

	// MeanTokens is the mean token volume per exchange.
	MeanTokens float64
}
