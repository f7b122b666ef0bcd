package telemetry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"llmobs-hq/copilot/pkg/anomaly"
)

// Severity grades an incident.
type Severity string

// Incident severities, highest first.
const (
	SeveritySEV1 Severity = "SEV1"
	SeveritySEV2 Severity = "SEV2"
	SeveritySEV3 Severity = "SEV3"
)

// Incident is the structured record produced from a predictive alert.
// Predictive alerts surface as incidents rather than raw metrics so the
// on-call reader gets the diagnosis and the remediation steps, not just
// a number.
type Incident struct {
	// ID uniquely identifies the incident.
	ID string

	// Severity grades the incident. Predictive incidents declare at
	// SEV2: action needed, not yet an outage.
	Severity Severity

	// Title is the one-line summary.
	Title string

	// RootCause describes the trend that triggered the projection.
	RootCause string

	// Impact estimates what happens if the trend continues.
	Impact string

	// Remediation is the ordered list of suggested steps.
	Remediation []string

	// Metric is the tracked metric behind the projection.
	Metric anomaly.Metric

	// CreatedAt is when the incident was declared.
	CreatedAt time.Time
}

// NewIncident builds an incident record from a predictive alert.
func NewIncident(alert anomaly.PredictiveAlert) Incident {
	inc := Incident{
		ID:        uuid.NewString(),
		Severity:  SeveritySEV2,
		Metric:    alert.Metric,
		CreatedAt: time.Now(),
		RootCause: fmt.Sprintf(
			"%s trending upward: currently %.2f, projected to reach %.2f within %s (threshold %.2f)",
			alert.Metric, alert.CurrentValue, alert.ProjectedValue, alert.Horizon, alert.Threshold),
	}

	switch alert.Metric {
	case anomaly.MetricLatencyMs:
		inc.Title = "LLM latency trending toward SLO breach"
		inc.Impact = "User-facing response times will degrade; timeouts likely if the trend holds."
		inc.Remediation = []string{
			"Check provider status page for degradation",
			"Reduce max completion tokens to shorten generations",
			"Shift traffic to a faster model tier",
			"Raise client timeouts as a stopgap",
		}
	case anomaly.MetricErrorRatio:
		inc.Title = "LLM error ratio trending toward threshold"
		inc.Impact = "A growing share of exchanges will fail; retries will amplify provider load."
		inc.Remediation = []string{
			"Inspect recent provider error responses for a common cause",
			"Verify API credentials and quota headroom",
			"Enable request hedging or failover to a secondary provider",
		}
	case anomaly.MetricCostUSD:
		inc.Title = "LLM spend per exchange trending toward budget threshold"
		inc.Impact = "Projected cost growth will exhaust the period budget ahead of schedule."
		inc.Remediation = []string{
			"Identify callers driving token growth",
			"Route low-stakes traffic to a cheaper model",
			"Tighten prompt templates and context windows",
		}
	case anomaly.MetricTokens:
		inc.Title = "LLM token volume trending toward threshold"
		inc.Impact = "Rising token volume raises both cost and latency across all exchanges."
		inc.Remediation = []string{
			"Audit prompt sizes for runaway context accumulation",
			"Cap conversation history length",
			"Enable context compression for long sessions",
		}
	default:
		inc.Title = fmt.Sprintf("LLM metric %s trending toward threshold", alert.Metric)
		inc.Impact = "Projected threshold breach within the alert horizon."
		inc.Remediation = []string{"Investigate the trending metric"}
	}

	return inc
}

// EmitIncident records an incident as a structured log entry. Like all
// telemetry this is fire-and-forget.
func (e *Emitter) EmitIncident(inc Incident) {
	e.logger.Warn("predictive incident declared",
		"incident_id", inc.ID,
		"severity", string(inc.Severity),
		"title", inc.Title,
		"metric", string(inc.Metric),
		"root_cause", inc.RootCause,
		"impact", inc.Impact,
		"remediation", inc.Remediation,
	)
}
