// Copilot is a real-time evaluation pipeline for LLM chat traffic.
//
// Every exchange is screened by a guardrail engine before the model
// call, then cost-estimated, quality-scored, and fed to a rolling-window
// anomaly detector. Outcomes are emitted as telemetry under the stable
// llm.* metric names and persisted as audit records.
//
// Usage:
//
//	# Validate configuration
//	copilot validate
//
//	# Run synthetic traffic through the pipeline
//	copilot simulate --scenario normal
//
//	# Show version information
//	copilot version
package main

func main() {
	Execute()
}
