// Package costs provides fixed-point cost estimation for LLM exchanges.
//
// Costs are computed from prompt and completion token counts against a
// configured price table keyed by model identifier, with rates expressed
// as USD per 1000 tokens. Results are carried in MicroUSD (int64
// millionths of a dollar): over millions of exchanges, accumulating
// float64 dollars drifts, and the drift is a correctness problem for
// billing-adjacent telemetry, so floating point is confined to the
// configuration boundary and to display.
//
// An unknown model is a configuration error (UnknownModelError), never a
// zero cost. The price table supports hot reload via UpdatePricing.
package costs
