package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"llmobs-hq/copilot/pkg/anomaly"
	"llmobs-hq/copilot/pkg/config"
	"llmobs-hq/copilot/pkg/costs"
	"llmobs-hq/copilot/pkg/evidence"
	"llmobs-hq/copilot/pkg/guardrail"
	"llmobs-hq/copilot/pkg/quality"
	"llmobs-hq/copilot/pkg/telemetry"
	"llmobs-hq/copilot/pkg/tokens"
)

// incidentCooldown spaces repeated incidents for the same metric so a
// sustained trend declares once, not once per exchange.
const incidentCooldown = 5 * time.Minute

// Recorder persists evaluation records. evidence.Store satisfies it; a
// nil recorder disables persistence.
type Recorder interface {
	Insert(ctx context.Context, r *evidence.Record) error
}

// Pipeline orchestrates one evaluation per exchange: guardrail
// screening, the model call, cost estimation, quality scoring, anomaly
// observation, telemetry emission, and evidence recording.
//
// Exchanges are evaluated concurrently and independently. The anomaly
// detector is the only shared mutable state; everything else is either
// immutable configuration or owned by the single invocation.
type Pipeline struct {
	guardrails *guardrail.Engine
	estimator  *costs.Estimator
	scorer     *quality.Scorer
	detector   *anomaly.Detector
	emitter    *telemetry.Emitter
	counter    tokens.Counter
	recorder   Recorder
	logger     *slog.Logger

	service         string
	env             string
	defaultSafeMode bool

	mu            sync.Mutex
	lastIncidents map[anomaly.Metric]time.Time
}

// New wires a pipeline from its evaluated components. recorder may be
// nil to disable evidence persistence.
func New(
	svc *config.ServiceConfig,
	guardrails *guardrail.Engine,
	estimator *costs.Estimator,
	scorer *quality.Scorer,
	detector *anomaly.Detector,
	emitter *telemetry.Emitter,
	counter tokens.Counter,
	recorder Recorder,
) *Pipeline {
	return &Pipeline{
		guardrails:      guardrails,
		estimator:       estimator,
		scorer:          scorer,
		detector:        detector,
		emitter:         emitter,
		counter:         counter,
		recorder:        recorder,
		logger:          slog.Default().With("component", "pipeline"),
		service:         svc.Name,
		env:             svc.Environment,
		defaultSafeMode: svc.SafeMode,
		lastIncidents:   make(map[anomaly.Metric]time.Time),
	}
}

// Process evaluates one exchange end to end. The guardrail runs first
// and can short-circuit the model call; everything downstream of the
// model call still runs on a blocked or failed exchange so the audit
// trail is complete. Process always returns a populated Exchange.
//
// Client cancellation does not abort scoring or telemetry: once the
// guardrail has run, the exchange is evaluated to completion on a
// detached context.
func (p *Pipeline) Process(ctx context.Context, req Request, call ModelCaller) *Exchange {
	started := time.Now()

	ex := &Exchange{
		RequestID: req.RequestID,
		Input:     req.Input,
		Model:     req.Model,
		SafeMode:  p.defaultSafeMode,
		Timestamp: started,
	}
	if ex.RequestID == "" {
		ex.RequestID = uuid.NewString()
	}
	if req.SafeMode != nil {
		ex.SafeMode = *req.SafeMode
	}

	if ex.SafeMode {
		ex.Verdict = p.guardrails.Evaluate(req.Input)
	}

	if ex.Verdict.Blocked {
		ex.Output = RefusalMessage
	} else {
		resp, err := call(ctx, req.Input, req.Model)
		if err != nil {
			ex.Err = err.Error()
		} else {
			ex.Output = resp.Text
			ex.PromptTokens = resp.PromptTokens
			ex.CompletionTokens = resp.CompletionTokens
		}
	}

	ex.Latency = time.Since(started)

	// Scoring and telemetry are audit obligations, not client-facing
	// work; they run detached from client cancellation.
	bg := context.WithoutCancel(ctx)
	p.evaluate(bg, ex)
	p.observe(bg, ex)

	return ex
}

// evaluate fills in token counts, cost, and quality scores.
func (p *Pipeline) evaluate(ctx context.Context, ex *Exchange) {
	p.backfillTokens(ex)

	if !ex.Verdict.Blocked && ex.Err == "" {
		est, err := p.estimator.Estimate(ex.Model, ex.PromptTokens, ex.CompletionTokens)
		if err != nil {
			var unknown *costs.UnknownModelError
			if errors.As(err, &unknown) {
				p.logger.Error("model missing from price table",
					"request_id", ex.RequestID,
					"model", ex.Model)
			}
			ex.Err = err.Error()
		} else {
			ex.Cost = *est
		}
	}

	ex.Scores = p.scorer.Score(quality.Input{
		ResponseText:     ex.Output,
		Latency:          ex.Latency,
		CompletionTokens: ex.CompletionTokens,
		Verdict:          ex.Verdict,
	})
	if ex.Err != "" {
		ex.Scores.Degraded = true
	}
}

// backfillTokens estimates missing token counts so cost and telemetry
// always have something to work with.
func (p *Pipeline) backfillTokens(ex *Exchange) {
	if p.counter == nil {
		return
	}
	if ex.PromptTokens == 0 && ex.Input != "" {
		if n, err := p.counter.Count(ex.Input, ex.Model); err == nil {
			ex.PromptTokens = n
		}
	}
	if ex.CompletionTokens == 0 && ex.Output != "" && !ex.Verdict.Blocked {
		if n, err := p.counter.Count(ex.Output, ex.Model); err == nil {
			ex.CompletionTokens = n
		}
	}
}

// observe feeds the anomaly detector, emits telemetry and incidents,
// and writes the evidence record. Nothing here can fail the exchange.
func (p *Pipeline) observe(ctx context.Context, ex *Exchange) {
	p.detector.Observe(anomaly.Summary{
		Latency: ex.Latency,
		Err:     ex.Err != "",
		Cost:    ex.Cost.TotalCost,
		Tokens:  ex.PromptTokens + ex.CompletionTokens,
		Time:    ex.Timestamp,
	})

	p.emitter.EmitAll(p.events(ex))

	for _, alert := range p.detector.CurrentSignals() {
		if p.shouldDeclare(alert.Metric) {
			p.emitter.EmitIncident(telemetry.NewIncident(alert))
		}
	}

	if p.recorder != nil {
		rec := evidence.NewRecord(
			ex.RequestID, ex.Model, ex.SafeMode,
			ex.Verdict, ex.Cost, ex.Scores,
			ex.PromptTokens, ex.CompletionTokens, ex.Latency, ex.Err,
		)
		if err := p.recorder.Insert(ctx, rec); err != nil {
			p.logger.Error("evidence record not persisted",
				"request_id", ex.RequestID,
				"error", err)
		}
	}
}

// events maps a completed exchange to its telemetry contract.
func (p *Pipeline) events(ex *Exchange) []telemetry.Event {
	tags := telemetry.Tags{
		Service:  p.service,
		Env:      p.env,
		Model:    ex.Model,
		SafeMode: ex.SafeMode,
	}

	events := []telemetry.Event{
		telemetry.Counter(telemetry.MetricChatRequest, tags),
		telemetry.Histogram(telemetry.MetricChatLatencyMs, float64(ex.Latency.Milliseconds()), tags),
	}

	switch {
	case ex.Verdict.Blocked:
		events = append(events,
			telemetry.Counter(telemetry.MetricChatRefusal, tags),
			telemetry.Counter(telemetry.MetricAbuseDetected, tags),
		)
	case ex.Err != "":
		events = append(events, telemetry.Counter(telemetry.MetricChatError, tags))
	default:
		events = append(events, telemetry.Counter(telemetry.MetricChatOK, tags))
	}

	events = append(events,
		telemetry.Gauge(telemetry.MetricTokensPrompt, float64(ex.PromptTokens), tags),
		telemetry.Gauge(telemetry.MetricTokensCompletion, float64(ex.CompletionTokens), tags),
		telemetry.Gauge(telemetry.MetricTokensTotal, float64(ex.PromptTokens+ex.CompletionTokens), tags),
		telemetry.Gauge(telemetry.MetricCostTotalUSD, ex.Cost.TotalCost.USD(), tags),
		telemetry.Gauge(telemetry.MetricHallucinationRisk, ex.Scores.HallucinationRisk, tags),
		telemetry.Gauge(telemetry.MetricPerformanceScore, ex.Scores.PerformanceScore, tags),
		telemetry.Gauge(telemetry.MetricResponseQuality, ex.Scores.ResponseQuality, tags),
	)

	return events
}

// shouldDeclare rate-limits incident declaration per metric.
func (p *Pipeline) shouldDeclare(metric anomaly.Metric) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if last, ok := p.lastIncidents[metric]; ok && now.Sub(last) < incidentCooldown {
		return false
	}
	p.lastIncidents[metric] = now
	return true
}
