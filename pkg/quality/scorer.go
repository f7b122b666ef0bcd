package quality

import (
	"strings"
	"sync"
	"time"

	"llmobs-hq/copilot/pkg/config"
)

// Scorer computes the quality sub-scores and the composite health score
// for completed exchanges. It is thread-safe; weights and phrase lists
// support hot reload.
type Scorer struct {
	mu  sync.RWMutex
	cfg *config.QualityConfig
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg *config.QualityConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score evaluates one exchange. It always returns a usable Scores value:
// an exchange with no scoreable text gets worst-case conservative scores
// (maximal hallucination risk, zero response quality) with Degraded set,
// never an aborted evaluation.
func (s *Scorer) Score(in Input) Scores {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	scores := Scores{
		PerformanceScore: performanceScore(&cfg.Performance, in.Latency, in.CompletionTokens),
		AbuseDetected:    abuseDetected(in),
	}

	text := strings.TrimSpace(in.ResponseText)
	if text == "" {
		// Nothing to score; conservative substitution.
		scores.HallucinationRisk = 1.0
		scores.ResponseQuality = 0.0
		scores.Degraded = true
	} else {
		lowered := strings.ToLower(text)
		scores.HallucinationRisk = hallucinationRisk(&cfg.Hallucination, lowered)
		scores.ResponseQuality = responseQuality(&cfg.Response, in, text, lowered)
	}

	scores.CompositeHealth = compositeHealth(&cfg.Weights, scores)
	return scores
}

// UpdateConfig replaces the scoring configuration (hot reload support).
func (s *Scorer) UpdateConfig(cfg *config.QualityConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// hallucinationRisk counts matches against the configured phrase lists and
// maps the count to [0,1]. Deterministic given the same text and lists.
func hallucinationRisk(cfg *config.HallucinationConfig, lowered string) float64 {
	matches := 0
	for _, list := range [][]string{
		cfg.OverconfidentPhrases,
		cfg.UncitedClaimMarkers,
		cfg.ContradictionMarkers,
	} {
		for _, phrase := range list {
			matches += strings.Count(lowered, strings.ToLower(phrase))
		}
	}

	return clamp01(float64(matches) * cfg.PerMatchRisk)
}

// performanceScore combines a latency component and a throughput
// component, both varying smoothly so the score never jumps at a
// boundary.
//
// The latency component is 1/(1 + L/target): 1.0 at zero latency, 0.5 at
// the target, asymptotically 0 as latency grows. The throughput component
// is generation rate over target, capped at 1. The two are weighted
// equally.
func performanceScore(cfg *config.PerformanceConfig, latency time.Duration, completionTokens int) float64 {
	if latency <= 0 {
		// No measured latency (e.g., a short-circuited exchange); the
		// latency component is perfect and there is no rate to judge.
		return 1.0
	}

	latencyComponent := 1.0 / (1.0 + latency.Seconds()/cfg.TargetLatency.Seconds())

	throughputComponent := 1.0
	if completionTokens > 0 {
		rate := float64(completionTokens) / latency.Seconds()
		throughputComponent = clamp01(rate / cfg.TargetTokensPerSecond)
	}

	return 0.5*latencyComponent + 0.5*throughputComponent
}

// responseQuality starts from a perfect score and applies penalties for
// truncated or empty responses, leaked error markers, and refusals of
// clean requests. A refusal of a Blocked request is the expected outcome
// and carries no penalty.
func responseQuality(cfg *config.ResponseQualityConfig, in Input, text, lowered string) float64 {
	score := 1.0

	if len(text) < cfg.MinLength {
		score -= 0.5
	}

	for _, marker := range cfg.ErrorMarkers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			score -= 0.5
			break
		}
	}

	if in.Verdict.Clean() {
		for _, marker := range cfg.RefusalMarkers {
			if strings.Contains(lowered, strings.ToLower(marker)) {
				score -= 0.4
				break
			}
		}
	}

	return clamp01(score)
}

// abuseDetected is 1 exactly when the guardrail verdict is Blocked. It is
// purely derived from guardrail state so the two subsystems can never
// disagree.
func abuseDetected(in Input) float64 {
	if in.Verdict.Blocked {
		return 1.0
	}
	return 0.0
}

// compositeHealth is the weighted combination of the four sub-scores
// scaled to [0,100]. Risk-style sub-scores enter as (1 - value) so the
// composite is monotonically non-decreasing in every goodness direction:
// raising ResponseQuality or PerformanceScore never lowers the composite,
// and raising HallucinationRisk or AbuseDetected never raises it.
func compositeHealth(w *config.ScoreWeights, s Scores) float64 {
	total := w.Hallucination + w.Performance + w.Response + w.Abuse
	if total <= 0 {
		return 0
	}

	weighted := w.Hallucination*(1.0-s.HallucinationRisk) +
		w.Performance*s.PerformanceScore +
		w.Response*s.ResponseQuality +
		w.Abuse*(1.0-s.AbuseDetected)

	return 100.0 * weighted / total
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
