// Package quality implements multi-dimensional quality scoring for LLM
// exchanges.
//
// Four independent sub-scores are computed per exchange:
//
//   - hallucination risk: pattern heuristic over the response text
//     (overconfident phrasing, uncited claims, self-contradiction markers)
//   - performance: smooth function of latency and token-generation rate
//   - response quality: penalties for empty/truncated output, leaked
//     error markers, and refusals of clean requests
//   - abuse detected: derived directly from the guardrail verdict
//
// A composite health score in [0,100] combines the four with configurable
// weights. There is no canonical weighting: weights and phrase lists are
// operator configuration, and scoring is fully deterministic for a given
// configuration.
//
// Scoring never aborts an exchange. When required input is missing the
// scorer substitutes worst-case conservative values and flags the result
// as degraded.
package quality
