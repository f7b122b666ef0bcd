// Package pipeline orchestrates the evaluation of one exchange: the
// guardrail screens the inbound message and can short-circuit the model
// call; cost estimation and quality scoring run on the response; the
// anomaly detector and telemetry emitter observe every outcome; and an
// evidence record closes the audit trail. An exchange that reaches
// scoring always produces scores and a telemetry attempt, even when the
// provider failed or the client disconnected.
package pipeline
