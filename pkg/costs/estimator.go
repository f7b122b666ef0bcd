package costs

import (
	"math"
	"strings"
	"sync"

	"llmobs-hq/copilot/pkg/config"
)

// modelRates are the fixed-point per-1000-token rates for one model.
type modelRates struct {
	promptMicroPer1K     int64
	completionMicroPer1K int64
}

// Estimator computes exchange costs from token counts and the configured
// price table. It is thread-safe and supports hot reload of pricing.
type Estimator struct {
	mu    sync.RWMutex
	rates map[string]modelRates
}

// NewEstimator creates an estimator from the configured price table.
// Dollar rates are converted to micro-USD integers once, here, so that
// Estimate never touches floating point.
func NewEstimator(cfg *config.CostsConfig) *Estimator {
	e := &Estimator{}
	e.UpdatePricing(cfg)
	return e
}

// Estimate computes the cost of one exchange. It returns an
// UnknownModelError when the model has no price table entry, exact or
// prefix: callers must not treat an unconfigured model as free.
//
// Cost per side is tokens x rate / 1000 in integer micro-USD. The result
// is exact for rates that are whole micro-dollar amounts per 1K tokens,
// and deterministic for all inputs, so repeated summation never drifts.
func (e *Estimator) Estimate(model string, promptTokens, completionTokens int) (*Estimate, error) {
	e.mu.RLock()
	rates, ok := e.lookupLocked(model)
	e.mu.RUnlock()

	if !ok {
		return nil, &UnknownModelError{Model: model}
	}

	promptCost := tokenCost(promptTokens, rates.promptMicroPer1K)
	completionCost := tokenCost(completionTokens, rates.completionMicroPer1K)

	return &Estimate{
		PromptCost:     promptCost,
		CompletionCost: completionCost,
		TotalCost:      promptCost + completionCost,
		Model:          model,
	}, nil
}

// Known reports whether the model has a price table entry.
func (e *Estimator) Known(model string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.lookupLocked(model)
	return ok
}

// UpdatePricing replaces the price table (hot reload support). This is
// thread-safe and can be called while the estimator is in use.
func (e *Estimator) UpdatePricing(cfg *config.CostsConfig) {
	rates := make(map[string]modelRates, len(cfg.Pricing))
	for model, r := range cfg.Pricing {
		rates[model] = modelRates{
			promptMicroPer1K:     usdToMicro(r.PromptUSDPer1K),
			completionMicroPer1K: usdToMicro(r.CompletionUSDPer1K),
		}
	}

	e.mu.Lock()
	e.rates = rates
	e.mu.Unlock()
}

// lookupLocked resolves rates by exact match first, then by the longest
// configured prefix ("gpt-4" serves "gpt-4-0613"). Longest prefix keeps
// resolution deterministic when several prefixes match.
// Caller must hold at least a read lock.
func (e *Estimator) lookupLocked(model string) (modelRates, bool) {
	if r, ok := e.rates[model]; ok {
		return r, true
	}

	var (
		best    modelRates
		bestLen = -1
	)
	for prefix, r := range e.rates {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best = r
			bestLen = len(prefix)
		}
	}
	return best, bestLen >= 0
}

// tokenCost computes tokens x microPer1K / 1000 in integer arithmetic.
func tokenCost(tokens int, microPer1K int64) MicroUSD {
	if tokens <= 0 {
		return 0
	}
	return MicroUSD(int64(tokens) * microPer1K / 1000)
}

// usdToMicro converts a dollar rate from configuration to micro-USD.
func usdToMicro(usd float64) int64 {
	return int64(math.Round(usd * MicroUSDPerUSD))
}
