package anomaly

import (
	"sync"
	"time"

	"llmobs-hq/copilot/pkg/config"
)

// Detector maintains rolling statistics over recent exchanges and
// projects short-horizon linear trends for each tracked metric. When a
// projected value would cross its configured threshold, CurrentSignals
// reports a PredictiveAlert.
//
// The detector is advisory only: it never blocks or alters the
// pipeline's primary outputs. State lives for the process lifetime and
// resets on restart.
//
// Detector is safe for concurrent use. The rolling window is the one
// piece of shared mutable state in the evaluation core, so Observe and
// CurrentSignals serialize on an internal mutex.
type Detector struct {
	mu     sync.Mutex
	cfg    *config.AnomalyConfig
	window *rollingWindow
}

// NewDetector creates a detector with the given rolling-window and
// threshold configuration.
func NewDetector(cfg *config.AnomalyConfig) *Detector {
	return &Detector{
		cfg:    cfg,
		window: newRollingWindow(cfg.Window, cfg.BucketSize),
	}
}

// Observe records one exchange summary into the rolling window. A zero
// Time is stamped with the current time.
func (d *Detector) Observe(s Summary) {
	if s.Time.IsZero() {
		s.Time = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.window.add(s)
}

// Aggregates returns the current rolling-window statistics.
func (d *Detector) Aggregates() Aggregates {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window.aggregates()
}

// CurrentSignals projects each tracked metric's trend to the configured
// horizon and returns an alert for every metric whose projected value
// crosses its threshold. Flat or decreasing trends never alert. Fewer
// than MinBuckets populated buckets produces no signals.
func (d *Detector) CurrentSignals() []PredictiveAlert {
	d.mu.Lock()
	defer d.mu.Unlock()

	buckets := d.window.occupied()
	if len(buckets) < d.cfg.MinBuckets {
		return nil
	}

	series := map[Metric][]point{
		MetricLatencyMs:  bucketSeries(buckets, func(b bucket) float64 { return b.latencyMs / float64(b.count) }),
		MetricErrorRatio: bucketSeries(buckets, func(b bucket) float64 { return float64(b.errorCount) / float64(b.count) }),
		MetricCostUSD:    bucketSeries(buckets, func(b bucket) float64 { return float64(b.costMicro) / float64(b.count) / 1e6 }),
		MetricTokens:     bucketSeries(buckets, func(b bucket) float64 { return float64(b.tokens) / float64(b.count) }),
	}
	thresholds := map[Metric]float64{
		MetricLatencyMs:  d.cfg.Thresholds.LatencyMs,
		MetricErrorRatio: d.cfg.Thresholds.ErrorRatio,
		MetricCostUSD:    d.cfg.Thresholds.CostUSD,
		MetricTokens:     d.cfg.Thresholds.Tokens,
	}

	var alerts []PredictiveAlert
	for _, metric := range []Metric{MetricLatencyMs, MetricErrorRatio, MetricCostUSD, MetricTokens} {
		threshold := thresholds[metric]
		if threshold <= 0 {
			continue
		}

		pts := series[metric]
		slope, intercept, ok := linearFit(pts)
		if !ok || slope <= 0 {
			// Flat or improving trend; nothing to warn about.
			continue
		}

		last := pts[len(pts)-1]
		projected := intercept + slope*(last.x+d.cfg.Horizon.Seconds())
		if projected < threshold {
			continue
		}

		alerts = append(alerts, PredictiveAlert{
			Metric:         metric,
			CurrentValue:   last.y,
			ProjectedValue: projected,
			Threshold:      threshold,
			Horizon:        d.cfg.Horizon,
		})
	}

	return alerts
}

// UpdateConfig replaces thresholds and projection settings (hot reload
// support). Window geometry is fixed at construction; changing it would
// discard in-flight state for little benefit.
func (d *Detector) UpdateConfig(cfg *config.AnomalyConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// point is one (time, value) sample for trend fitting. x is seconds
// since the first bucket in the series.
type point struct {
	x, y float64
}

// bucketSeries maps chronological buckets to fit points using the given
// per-bucket value function.
func bucketSeries(buckets []bucket, value func(bucket) float64) []point {
	base := buckets[0].timestamp
	pts := make([]point, len(buckets))
	for i, b := range buckets {
		pts[i] = point{
			x: b.timestamp.Sub(base).Seconds(),
			y: value(b),
		}
	}
	return pts
}

// linearFit computes the least-squares line through the points. ok is
// false when the points are too few or degenerate (all at one x).
func linearFit(pts []point) (slope, intercept float64, ok bool) {
	if len(pts) < 2 {
		return 0, 0, false
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range pts {
		sumX += p.x
		sumY += p.y
		sumXY += p.x * p.y
		sumXX += p.x * p.x
	}

	n := float64(len(pts))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}
