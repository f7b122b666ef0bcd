package anomaly

import (
	"sync"
	"testing"
	"time"

	"llmobs-hq/copilot/pkg/config"
	"llmobs-hq/copilot/pkg/costs"
)

func testAnomalyConfig() *config.AnomalyConfig {
	return &config.AnomalyConfig{
		Window:     10 * time.Minute,
		BucketSize: 30 * time.Second,
		Horizon:    5 * time.Minute,
		MinBuckets: 3,
		Thresholds: config.AnomalyThresholds{
			LatencyMs:  10_000,
			ErrorRatio: 0.25,
			CostUSD:    0.50,
			Tokens:     8_000,
		},
	}
}

// feedLatencyTrend observes one sample per bucket with the given mean
// latencies, spaced one bucket apart starting at base.
func feedLatencyTrend(d *Detector, base time.Time, bucketSize time.Duration, latenciesMs []int) {
	for i, ms := range latenciesMs {
		d.Observe(Summary{
			Latency: time.Duration(ms) * time.Millisecond,
			Tokens:  100,
			Time:    base.Add(time.Duration(i) * bucketSize),
		})
	}
}

func TestDetector_IncreasingTrendAlerts(t *testing.T) {
	cfg := testAnomalyConfig()
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 1s, 2s, ... 5s mean latency per bucket: ~33ms/s slope, projecting
	// well past the 10s threshold within the 5m horizon.
	feedLatencyTrend(d, base, cfg.BucketSize, []int{1000, 2000, 3000, 4000, 5000})

	alerts := d.CurrentSignals()
	var latencyAlert *PredictiveAlert
	for i := range alerts {
		if alerts[i].Metric == MetricLatencyMs {
			latencyAlert = &alerts[i]
		}
	}

	if latencyAlert == nil {
		t.Fatalf("no latency alert among %+v", alerts)
	}
	if latencyAlert.ProjectedValue < cfg.Thresholds.LatencyMs {
		t.Errorf("ProjectedValue = %v, want >= threshold %v", latencyAlert.ProjectedValue, cfg.Thresholds.LatencyMs)
	}
	if latencyAlert.CurrentValue != 5000 {
		t.Errorf("CurrentValue = %v, want 5000 (last bucket mean)", latencyAlert.CurrentValue)
	}
	if latencyAlert.Horizon != cfg.Horizon {
		t.Errorf("Horizon = %v, want %v", latencyAlert.Horizon, cfg.Horizon)
	}
}

func TestDetector_FlatTrendSilent(t *testing.T) {
	cfg := testAnomalyConfig()
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	feedLatencyTrend(d, base, cfg.BucketSize, []int{2000, 2000, 2000, 2000, 2000})

	if alerts := d.CurrentSignals(); len(alerts) != 0 {
		t.Errorf("flat trend produced alerts: %+v", alerts)
	}
}

func TestDetector_DecreasingTrendSilent(t *testing.T) {
	cfg := testAnomalyConfig()
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	feedLatencyTrend(d, base, cfg.BucketSize, []int{5000, 4000, 3000, 2000, 1000})

	if alerts := d.CurrentSignals(); len(alerts) != 0 {
		t.Errorf("decreasing trend produced alerts: %+v", alerts)
	}
}

func TestDetector_MinBucketsGate(t *testing.T) {
	cfg := testAnomalyConfig()
	cfg.MinBuckets = 4
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A steep trend, but only three populated buckets.
	feedLatencyTrend(d, base, cfg.BucketSize, []int{2000, 6000, 9000})

	if alerts := d.CurrentSignals(); len(alerts) != 0 {
		t.Errorf("got alerts below the bucket minimum: %+v", alerts)
	}

	// The fourth bucket unlocks projection.
	d.Observe(Summary{
		Latency: 12 * time.Second,
		Time:    base.Add(3 * cfg.BucketSize),
	})
	if alerts := d.CurrentSignals(); len(alerts) == 0 {
		t.Error("no alerts once the bucket minimum is met")
	}
}

func TestDetector_ErrorRatioTrend(t *testing.T) {
	cfg := testAnomalyConfig()
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Error ratio climbing 0% -> 10% -> 20% per bucket, ten samples each.
	for i, failures := range []int{0, 1, 2} {
		slot := base.Add(time.Duration(i) * cfg.BucketSize)
		for j := 0; j < 10; j++ {
			d.Observe(Summary{
				Latency: 500 * time.Millisecond,
				Err:     j < failures,
				Time:    slot,
			})
		}
	}

	var found bool
	for _, a := range d.CurrentSignals() {
		if a.Metric == MetricErrorRatio {
			found = true
			if a.CurrentValue != 0.2 {
				t.Errorf("CurrentValue = %v, want 0.2", a.CurrentValue)
			}
		}
	}
	if !found {
		t.Error("no error-ratio alert for a climbing error rate")
	}
}

func TestDetector_Aggregates(t *testing.T) {
	d := NewDetector(testAnomalyConfig())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	d.Observe(Summary{Latency: time.Second, Cost: 100_000, Tokens: 200, Time: base})
	d.Observe(Summary{Latency: 3 * time.Second, Cost: 300_000, Tokens: 400, Err: true, Time: base.Add(time.Minute)})

	agg := d.Aggregates()
	if agg.Count != 2 {
		t.Fatalf("Count = %d, want 2", agg.Count)
	}
	if agg.MeanLatency != 2*time.Second {
		t.Errorf("MeanLatency = %v, want 2s", agg.MeanLatency)
	}
	if agg.ErrorRatio != 0.5 {
		t.Errorf("ErrorRatio = %v, want 0.5", agg.ErrorRatio)
	}
	if agg.MeanCost != costs.MicroUSD(200_000) {
		t.Errorf("MeanCost = %v, want 200000 micro-USD", agg.MeanCost)
	}
	if agg.MeanTokens != 300 {
		t.Errorf("MeanTokens = %v, want 300", agg.MeanTokens)
	}
}

func TestDetector_P95Latency(t *testing.T) {
	d := NewDetector(testAnomalyConfig())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 20 samples from 100ms to 2000ms in one bucket, well under the
	// reservoir bound, so the percentile is exact: nearest-rank p95 of
	// 20 values is the 19th, 1900ms.
	for i := 1; i <= 20; i++ {
		d.Observe(Summary{
			Latency: time.Duration(i*100) * time.Millisecond,
			Tokens:  100,
			Time:    base,
		})
	}

	agg := d.Aggregates()
	if agg.P95Latency != 1900*time.Millisecond {
		t.Errorf("P95Latency = %v, want 1.9s", agg.P95Latency)
	}
}

func TestDetector_WindowEviction(t *testing.T) {
	cfg := testAnomalyConfig()
	d := NewDetector(cfg)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	d.Observe(Summary{Latency: time.Second, Tokens: 100, Time: base})
	if agg := d.Aggregates(); agg.Count != 1 {
		t.Fatalf("Count = %d, want 1", agg.Count)
	}

	// An observation a full window later evicts the first bucket.
	d.Observe(Summary{Latency: time.Second, Tokens: 100, Time: base.Add(cfg.Window + cfg.BucketSize)})
	if agg := d.Aggregates(); agg.Count != 1 {
		t.Errorf("Count = %d after eviction, want 1", agg.Count)
	}
}

func TestDetector_ConcurrentObserve(t *testing.T) {
	d := NewDetector(testAnomalyConfig())

	const (
		writers        = 16
		callsPerWriter = 500
	)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < callsPerWriter; i++ {
				d.Observe(Summary{
					Latency: time.Duration(i%100) * time.Millisecond,
					Cost:    costs.MicroUSD(i),
					Tokens:  i % 500,
					Err:     i%7 == 0,
				})
				if i%50 == 0 {
					d.CurrentSignals()
				}
			}
		}()
	}
	wg.Wait()

	if agg := d.Aggregates(); agg.Count != writers*callsPerWriter {
		t.Errorf("Count = %d, want %d (lost updates)", agg.Count, writers*callsPerWriter)
	}
}
