package anomaly

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"llmobs-hq/copilot/pkg/costs"
)

// latencyReservoirSize bounds the latency samples kept per bucket for
// percentile aggregation. Below this count the percentile is exact.
const latencyReservoirSize = 64

// rollingWindow tracks exchange summaries over a rolling time window.
//
// The window is divided into fixed-size buckets. Each bucket holds the
// aggregates for one time slot, so memory is bounded by window/bucketSize
// regardless of request volume. Eviction is monotonic: the high-water
// mark of observed timestamps drives the cutoff, so a stale or reordered
// observation can never resurrect an evicted slot.
//
// rollingWindow is not itself synchronized; Detector serializes access.
type rollingWindow struct {
	window     time.Duration
	bucketSize time.Duration
	buckets    []bucket
	latest     time.Time // high-water mark of observed timestamps
}

// bucket aggregates the summaries that fell into one time slot.
type bucket struct {
	timestamp  time.Time
	count      int64
	errorCount int64
	latencyMs  float64 // sum of latencies in milliseconds
	costMicro  int64   // sum of costs in micro-USD
	tokens     int64   // sum of token volumes

	// samples is a bounded reservoir of individual latencies (ms) for
	// percentile aggregation.
	samples []float64
}

func newRollingWindow(window, bucketSize time.Duration) *rollingWindow {
	numBuckets := int(window / bucketSize)
	if numBuckets == 0 {
		numBuckets = 1
	}

	return &rollingWindow{
		window:     window,
		bucketSize: bucketSize,
		buckets:    make([]bucket, numBuckets),
	}
}

// add records a summary into the bucket for its timestamp, evicting
// slots that have fallen outside the window.
func (rw *rollingWindow) add(s Summary) {
	if s.Time.After(rw.latest) {
		rw.latest = s.Time
	}
	rw.prune()

	b := rw.findOrCreateBucket(s.Time.Truncate(rw.bucketSize))
	if b == nil {
		// Older than the window; nothing to record.
		return
	}

	b.count++
	if s.Err {
		b.errorCount++
	}
	ms := float64(s.Latency.Milliseconds())
	b.latencyMs += ms
	b.costMicro += int64(s.Cost)
	b.tokens += int64(s.Tokens)

	// Reservoir sampling over the bucket's observations.
	if len(b.samples) < latencyReservoirSize {
		b.samples = append(b.samples, ms)
	} else if j := rand.Int63n(b.count); j < latencyReservoirSize {
		b.samples[j] = ms
	}
}

// prune clears buckets older than the window, measured from the
// high-water mark rather than the wall clock so eviction stays
// monotonic under synthetic or reordered timestamps.
func (rw *rollingWindow) prune() {
	cutoff := rw.latest.Add(-rw.window)

	for i := range rw.buckets {
		if !rw.buckets[i].timestamp.IsZero() && rw.buckets[i].timestamp.Before(cutoff) {
			rw.buckets[i] = bucket{}
		}
	}
}

// findOrCreateBucket returns the bucket for the given slot, creating it
// in an empty or oldest slot if needed. Returns nil for slots already
// outside the window.
func (rw *rollingWindow) findOrCreateBucket(slot time.Time) *bucket {
	if slot.Before(rw.latest.Add(-rw.window)) {
		return nil
	}

	for i := range rw.buckets {
		if rw.buckets[i].timestamp.Equal(slot) {
			return &rw.buckets[i]
		}
	}

	// Prefer an empty slot, otherwise reclaim the oldest.
	targetIdx := -1
	for i := range rw.buckets {
		if rw.buckets[i].timestamp.IsZero() {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		targetIdx = 0
		for i := 1; i < len(rw.buckets); i++ {
			if rw.buckets[i].timestamp.Before(rw.buckets[targetIdx].timestamp) {
				targetIdx = i
			}
		}
	}

	rw.buckets[targetIdx] = bucket{timestamp: slot}
	return &rw.buckets[targetIdx]
}

// occupied returns the non-empty buckets in chronological order.
func (rw *rollingWindow) occupied() []bucket {
	out := make([]bucket, 0, len(rw.buckets))
	for i := range rw.buckets {
		if !rw.buckets[i].timestamp.IsZero() && rw.buckets[i].count > 0 {
			out = append(out, rw.buckets[i])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].timestamp.Before(out[j].timestamp)
	})
	return out
}

// aggregates sums all in-window buckets into rolling statistics.
func (rw *rollingWindow) aggregates() Aggregates {
	var agg Aggregates
	var latencyMs float64
	var costMicro, tokens int64
	var errors int64
	var samples []float64

	for i := range rw.buckets {
		b := &rw.buckets[i]
		if b.timestamp.IsZero() {
			continue
		}
		agg.Count += b.count
		errors += b.errorCount
		latencyMs += b.latencyMs
		costMicro += b.costMicro
		tokens += b.tokens
		samples = append(samples, b.samples...)
	}

	if agg.Count == 0 {
		return agg
	}

	n := float64(agg.Count)
	agg.MeanLatency = time.Duration(latencyMs/n) * time.Millisecond
	agg.ErrorRatio = float64(errors) / n
	agg.MeanCost = costs.MicroUSD(costMicro / agg.Count)
	agg.MeanTokens = float64(tokens) / n
	agg.P95Latency = time.Duration(percentile(samples, 0.95)) * time.Millisecond
	return agg
}

// percentile returns the p-th percentile of values using the
// nearest-rank method. values is sorted in place.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	rank := int(math.Ceil(p*float64(len(values)))) - 1
	if rank < 0 {
		rank = 0
	}
	return values[rank]
}
