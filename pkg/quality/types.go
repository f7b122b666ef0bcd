package quality

import (
	"time"

	"llmobs-hq/copilot/pkg/guardrail"
)

// Input carries everything the scorer needs about one exchange.
type Input struct {
	// ResponseText is the model response (or the fixed refusal message
	// for a blocked exchange).
	ResponseText string

	// Latency is the end-to-end exchange latency.
	Latency time.Duration

	// CompletionTokens is the completion token count, used for the
	// generation-rate component of the performance score.
	CompletionTokens int

	// Verdict is the guardrail outcome for the exchange. The abuse
	// sub-score is derived from it, and a refusal response is only
	// penalized when the verdict is Clean.
	Verdict guardrail.Verdict
}

// Scores are the four sub-scores and the derived composite for one
// exchange. All sub-scores are in [0,1]; CompositeHealth is in [0,100].
type Scores struct {
	// HallucinationRisk is the heuristic hallucination risk; higher is
	// riskier. It is a risk indicator, not a ground-truth classifier.
	HallucinationRisk float64

	// PerformanceScore reflects latency and token-generation rate;
	// higher is better. The score degrades smoothly, with no threshold
	// cliffs, so alerting can be layered on top without flapping.
	PerformanceScore float64

	// ResponseQuality penalizes empty or truncated responses, leaked
	// error markers, and refusals of clean requests; higher is better.
	ResponseQuality float64

	// AbuseDetected is 1 exactly when the verdict is Blocked, else 0.
	// It is derived from guardrail state, never computed independently.
	AbuseDetected float64

	// CompositeHealth is the weighted combination of the four sub-scores
	// scaled to [0,100]. Recomputing from the same sub-scores and weights
	// always yields the same value.
	CompositeHealth float64

	// Degraded reports that scoring hit an evaluation error (for example
	// an empty response where text was required) and substituted
	// worst-case conservative values rather than aborting the exchange.
	Degraded bool
}
