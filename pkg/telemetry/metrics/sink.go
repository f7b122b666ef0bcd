package metrics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"llmobs-hq/copilot/pkg/telemetry"
)

// eventLabels are the Prometheus labels carried by every metric,
// mirroring the tag set of the telemetry contract.
var eventLabels = []string{"service", "env", "model", "safe_mode"}

// latencyBuckets covers LLM exchange latencies in milliseconds, from
// sub-second cache hits to 30s generations.
var latencyBuckets = []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000}

// Sink exposes pipeline telemetry in Prometheus exposition format. The
// canonical dotted metric names are the wire contract; this sink maps
// them to legal Prometheus names (dots become underscores) as a backend
// detail without changing the contract.
//
// All metric instances are pre-registered at construction: Deliver on
// an unknown metric name is an error, not a silent registration.
type Sink struct {
	registry *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewSink creates a sink with every contract metric pre-registered on
// its own registry.
func NewSink() *Sink {
	s := &Sink{
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}

	for name, help := range map[string]string{
		telemetry.MetricChatRequest:   "Total exchange attempts",
		telemetry.MetricChatOK:        "Total non-blocked, non-error exchanges",
		telemetry.MetricChatError:     "Total failed model calls",
		telemetry.MetricChatRefusal:   "Total blocked exchanges",
		telemetry.MetricAbuseDetected: "Total exchanges with a blocked guardrail verdict",
	} {
		vec := prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: promName(name) + "_total", Help: help},
			eventLabels,
		)
		s.registry.MustRegister(vec)
		s.counters[name] = vec
	}

	for name, help := range map[string]string{
		telemetry.MetricTokensPrompt:      "Prompt token count of the last exchange",
		telemetry.MetricTokensCompletion:  "Completion token count of the last exchange",
		telemetry.MetricTokensTotal:       "Total token count of the last exchange",
		telemetry.MetricCostTotalUSD:      "Total cost in USD of the last exchange",
		telemetry.MetricHallucinationRisk: "Hallucination risk sub-score in [0,1]",
		telemetry.MetricPerformanceScore:  "Performance sub-score in [0,1]",
		telemetry.MetricResponseQuality:   "Response quality sub-score in [0,1]",
	} {
		vec := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: promName(name), Help: help},
			eventLabels,
		)
		s.registry.MustRegister(vec)
		s.gauges[name] = vec
	}

	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    promName(telemetry.MetricChatLatencyMs),
			Help:    "Exchange end-to-end latency in milliseconds",
			Buckets: latencyBuckets,
		},
		eventLabels,
	)
	s.registry.MustRegister(latency)
	s.histograms[telemetry.MetricChatLatencyMs] = latency

	return s
}

// Deliver records one event into the matching Prometheus metric.
func (s *Sink) Deliver(ev telemetry.Event) error {
	labels := labelValues(ev.Tags)

	switch ev.Kind {
	case telemetry.KindCounter:
		vec, ok := s.counters[ev.Name]
		if !ok {
			return fmt.Errorf("unknown counter metric %q", ev.Name)
		}
		vec.WithLabelValues(labels...).Add(ev.Value)
	case telemetry.KindGauge:
		vec, ok := s.gauges[ev.Name]
		if !ok {
			return fmt.Errorf("unknown gauge metric %q", ev.Name)
		}
		vec.WithLabelValues(labels...).Set(ev.Value)
	case telemetry.KindHistogram:
		vec, ok := s.histograms[ev.Name]
		if !ok {
			return fmt.Errorf("unknown histogram metric %q", ev.Name)
		}
		vec.WithLabelValues(labels...).Observe(ev.Value)
	default:
		return fmt.Errorf("unknown metric kind %q", ev.Kind)
	}

	return nil
}

// Registry returns the Prometheus registry backing this sink.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

func labelValues(tags telemetry.Tags) []string {
	return []string{
		tags.Service,
		tags.Env,
		tags.Model,
		strconv.FormatBool(tags.SafeMode),
	}
}

// promName maps a dotted contract name to a legal Prometheus name.
func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
