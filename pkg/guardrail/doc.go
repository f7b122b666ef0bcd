// Package guardrail implements the pre-model-call security filter.
//
// The engine scans every inbound message against a fixed, ordered
// catalogue of attack patterns before any model call is made. Patterns are
// grouped into five categories (prompt injection, jailbreak, credential
// extraction, system prompt theft, harmful content) tested in a fixed
// priority order; the first matching category produces the verdict, which
// keeps classification deterministic across repeated calls.
//
// The catalogue is external configuration, compiled and validated at
// startup into an immutable versioned Catalogue. Hot reload swaps in a
// complete new version; a running evaluation always sees a single
// consistent catalogue.
//
// Evaluate performs no I/O and has no side effects. Whether a Blocked
// verdict is logged, counted, or turned into a refusal is the caller's
// decision.
package guardrail
