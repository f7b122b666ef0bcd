package pipeline

import (
	"context"
	"time"

	"llmobs-hq/copilot/pkg/costs"
	"llmobs-hq/copilot/pkg/guardrail"
	"llmobs-hq/copilot/pkg/quality"
)

// RefusalMessage is the fixed response text returned for a blocked
// exchange. The model is never called; this is the only output a
// blocked request produces.
const RefusalMessage = "Request blocked by safety guardrails. The message matched a known attack pattern and was not sent to the model."

// Request is the caller's input to one evaluation.
type Request struct {
	// RequestID identifies the exchange. Generated when empty.
	RequestID string

	// Input is the inbound message text. The caller rejects non-text
	// input before it reaches the pipeline.
	Input string

	// Model is the model identifier used for pricing and tags.
	Model string

	// SafeMode overrides the configured guardrail mode for this
	// exchange. Nil means use the configured default.
	SafeMode *bool
}

// ModelResponse is what the provider returned for a non-blocked
// exchange.
type ModelResponse struct {
	// Text is the generated response.
	Text string

	// PromptTokens and CompletionTokens are the provider-reported
	// counts. Zero counts are backfilled with a tokenizer estimate.
	PromptTokens     int
	CompletionTokens int
}

// ModelCaller invokes the language-model provider. The pipeline treats
// it as a black box returning text and token counts.
type ModelCaller func(ctx context.Context, input, model string) (*ModelResponse, error)

// Exchange is one fully evaluated request/response cycle. It is
// populated by the pipeline invocation that produced it and never
// mutated afterward.
type Exchange struct {
	// RequestID identifies the exchange.
	RequestID string

	// Input is the inbound message text.
	Input string

	// Output is the response text: the model's response, the fixed
	// refusal message when blocked, or empty on provider error.
	Output string

	// PromptTokens and CompletionTokens are the token counts used for
	// cost estimation.
	PromptTokens     int
	CompletionTokens int

	// Latency is the end-to-end duration of the exchange.
	Latency time.Duration

	// Model is the model identifier.
	Model string

	// SafeMode reports whether guardrails were active for this
	// exchange.
	SafeMode bool

	// Verdict is the guardrail outcome.
	Verdict guardrail.Verdict

	// Cost is the estimate for the exchange; zero when blocked or when
	// the provider failed before producing tokens.
	Cost costs.Estimate

	// Scores are the quality scores, always present once the exchange
	// reaches scoring, possibly conservative on degraded input.
	Scores quality.Scores

	// Err is the provider error message, empty on success.
	Err string

	// Timestamp is when the exchange arrived.
	Timestamp time.Time
}

// Blocked reports whether the guardrail short-circuited the exchange.
func (e *Exchange) Blocked() bool {
	return e.Verdict.Blocked
}
