package telemetry

import (
	"strings"
	"testing"
	"time"

	"llmobs-hq/copilot/pkg/anomaly"
)

func TestNewIncident(t *testing.T) {
	alert := anomaly.PredictiveAlert{
		Metric:         anomaly.MetricLatencyMs,
		CurrentValue:   5000,
		ProjectedValue: 15000,
		Threshold:      10000,
		Horizon:        5 * time.Minute,
	}

	inc := NewIncident(alert)

	if inc.ID == "" {
		t.Error("incident ID is empty")
	}
	if inc.Severity != SeveritySEV2 {
		t.Errorf("Severity = %v, want SEV2", inc.Severity)
	}
	if inc.Metric != anomaly.MetricLatencyMs {
		t.Errorf("Metric = %v, want %v", inc.Metric, anomaly.MetricLatencyMs)
	}
	if !strings.Contains(inc.RootCause, "15000") {
		t.Errorf("RootCause %q missing projected value", inc.RootCause)
	}
	if len(inc.Remediation) == 0 {
		t.Error("Remediation is empty")
	}
	if inc.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestNewIncident_PerMetricContent(t *testing.T) {
	metrics := []anomaly.Metric{
		anomaly.MetricLatencyMs,
		anomaly.MetricErrorRatio,
		anomaly.MetricCostUSD,
		anomaly.MetricTokens,
	}

	titles := make(map[string]bool)
	for _, m := range metrics {
		inc := NewIncident(anomaly.PredictiveAlert{Metric: m, Horizon: time.Minute})
		if inc.Title == "" || inc.Impact == "" {
			t.Errorf("metric %v produced incomplete incident: %+v", m, inc)
		}
		titles[inc.Title] = true
	}

	if len(titles) != len(metrics) {
		t.Errorf("got %d distinct titles for %d metrics", len(titles), len(metrics))
	}
}
