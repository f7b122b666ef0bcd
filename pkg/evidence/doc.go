// Package evidence persists one audit record per evaluated exchange in
// SQLite: the guardrail verdict, token counts, fixed-point cost, and
// quality scores. Retention is enforced by a cron-scheduled pruner
// honoring both an age limit and a record cap.
package evidence
