// Package telemetry translates evaluation outcomes into the external
// observability contract: counters, gauges, and histograms under the
// stable llm.* metric names, plus structured incident records for
// predictive alerts.
//
// Emission is fire-and-forget. Events flow through a bounded queue
// drained by a single worker; delivery failures are retried a bounded
// number of times and then swallowed. A telemetry outage can cost data
// points but can never fail or delay an exchange.
package telemetry
