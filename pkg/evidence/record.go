package evidence

import (
	"time"

	"github.com/google/uuid"

	"llmobs-hq/copilot/pkg/costs"
	"llmobs-hq/copilot/pkg/guardrail"
	"llmobs-hq/copilot/pkg/quality"
)

// Record is one persisted evaluation: the guardrail verdict, cost
// estimate, and quality scores of a single exchange. Records are the
// audit trail behind the emitted telemetry; they are written once and
// never updated.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// RequestID is the exchange's request identifier.
	RequestID string

	// CreatedAt is when the record was written.
	CreatedAt time.Time

	// Model is the model identifier of the exchange.
	Model string

	// SafeMode reports whether guardrails were active.
	SafeMode bool

	// Blocked, Category, MatchedPattern, and CatalogueVersion carry the
	// guardrail verdict.
	Blocked          bool
	Category         string
	MatchedPattern   string
	CatalogueVersion string

	// Token counts and latency of the exchange.
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64

	// Cost in micro-USD. Fixed-point survives the round trip exactly.
	PromptCostMicro     int64
	CompletionCostMicro int64
	TotalCostMicro      int64

	// Quality sub-scores and composite.
	HallucinationRisk float64
	PerformanceScore  float64
	ResponseQuality   float64
	AbuseDetected     float64
	CompositeHealth   float64
	Degraded          bool

	// Error is the provider error message, empty on success.
	Error string
}

// NewRecord assembles a record from the evaluation outputs of one
// exchange.
func NewRecord(requestID, model string, safeMode bool, verdict guardrail.Verdict, est costs.Estimate, scores quality.Scores, promptTokens, completionTokens int, latency time.Duration, provErr string) *Record {
	return &Record{
		ID:               uuid.NewString(),
		RequestID:        requestID,
		CreatedAt:        time.Now().UTC(),
		Model:            model,
		SafeMode:         safeMode,
		Blocked:          verdict.Blocked,
		Category:         string(verdict.Category),
		MatchedPattern:   verdict.MatchedPattern,
		CatalogueVersion: verdict.CatalogueVersion,

		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMs:        latency.Milliseconds(),

		PromptCostMicro:     int64(est.PromptCost),
		CompletionCostMicro: int64(est.CompletionCost),
		TotalCostMicro:      int64(est.TotalCost),

		HallucinationRisk: scores.HallucinationRisk,
		PerformanceScore:  scores.PerformanceScore,
		ResponseQuality:   scores.ResponseQuality,
		AbuseDetected:     scores.AbuseDetected,
		CompositeHealth:   scores.CompositeHealth,
		Degraded:          scores.Degraded,

		Error: provErr,
	}
}
