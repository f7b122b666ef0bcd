package costs

import "fmt"

// MicroUSD is a monetary amount in millionths of a US dollar.
//
// All cost arithmetic is integer arithmetic on this type. Summing the cost
// of millions of exchanges in floating point drifts; summing int64
// micro-dollars does not, which is why this is the stored and reported
// unit rather than a float.
type MicroUSD int64

// MicroUSDPerUSD is the number of micro-dollars in one dollar.
const MicroUSDPerUSD = 1_000_000

// USD returns the amount as a float64 dollar value. Intended for display
// and for threshold comparisons only, never for accumulation.
func (m MicroUSD) USD() float64 {
	return float64(m) / MicroUSDPerUSD
}

// String formats the amount as a dollar string, e.g. "$6.250000".
func (m MicroUSD) String() string {
	return fmt.Sprintf("$%.6f", m.USD())
}

// Estimate contains the cost breakdown for one exchange, in micro-USD.
type Estimate struct {
	// PromptCost is the cost of the prompt tokens.
	PromptCost MicroUSD

	// CompletionCost is the cost of the completion tokens.
	CompletionCost MicroUSD

	// TotalCost is PromptCost + CompletionCost.
	TotalCost MicroUSD

	// Model is the model identifier the pricing was resolved for.
	Model string
}

// UnknownModelError indicates the price table has no entry for a model.
// Callers must treat this as a configuration error: an unknown model is
// never silently billed as free.
type UnknownModelError struct {
	// Model is the unconfigured model identifier.
	Model string
}

// Error returns the error message.
func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("no pricing configured for model %q", e.Model)
}
