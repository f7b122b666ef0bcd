package config

import "time"

// Config is the root configuration structure for the LLM Observability
// Copilot evaluation core. It contains all configuration sections for the
// guardrail engine, cost estimation, quality scoring, anomaly detection,
// telemetry emission, and evidence storage.
type Config struct {
	// Service contains service identity settings used to tag every
	// telemetry event and evidence record.
	Service ServiceConfig `yaml:"service"`

	// Guardrail contains the attack-pattern catalogue for the guardrail
	// engine. The catalogue is required configuration; a catalogue with
	// missing categories fails validation at startup.
	Guardrail GuardrailConfig `yaml:"guardrail"`

	// Costs contains the model price table for cost estimation.
	// The table is required configuration; an empty table fails validation.
	Costs CostsConfig `yaml:"costs"`

	// Quality contains weights, phrase lists, and thresholds for the
	// quality scoring engine. All values are tunable; defaults are applied
	// for anything left unset.
	Quality QualityConfig `yaml:"quality"`

	// Anomaly contains rolling-window and projection settings for the
	// anomaly/trend detector.
	Anomaly AnomalyConfig `yaml:"anomaly"`

	// Telemetry contains settings for the telemetry emitter and the
	// Prometheus metrics endpoint.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Evidence contains configuration for the evaluation audit store
	// including database path and retention settings.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig identifies the running service. The values become the
// `service`, `env`, and `safe_mode` tags carried by every telemetry event.
type ServiceConfig struct {
	// Name is the service name tag.
	// Default: "llm-observability-copilot"
	Name string `yaml:"name"`

	// Environment is the deployment environment tag (e.g., "dev", "prod").
	// Default: "dev"
	Environment string `yaml:"environment"`

	// SafeMode enables guardrail evaluation of inbound messages by
	// default. Callers may override the mode per exchange. When guardrails
	// are off every exchange is treated as Clean, but the safe_mode tag
	// still reflects the mode.
	SafeMode bool `yaml:"safe_mode"`
}

// GuardrailConfig contains the attack-pattern catalogue, keyed by category.
//
// The five category keys are fixed: "prompt_injection", "jailbreak",
// "credential_extraction", "system_prompt_theft", "harmful_content".
// Every category must carry at least one pattern; the engine refuses to
// start with a partial catalogue rather than silently passing traffic.
type GuardrailConfig struct {
	// Version is an operator-assigned catalogue version string, recorded
	// on every Blocked verdict for auditability.
	// Default: "unversioned"
	Version string `yaml:"version"`

	// Categories maps a category key to its pattern set.
	Categories map[string]PatternSet `yaml:"categories"`

	// Watch enables hot reload of the catalogue when the configuration
	// file changes. A reload swaps in a complete new catalogue version;
	// a catalogue is never mutated in place.
	// Default: false
	Watch bool `yaml:"watch"`
}

// PatternSet is the set of matchers for one guardrail category.
type PatternSet struct {
	// Phrases are case-insensitive substring matchers.
	Phrases []string `yaml:"phrases"`

	// Regex are regular-expression matchers, compiled case-insensitive.
	// A pattern that fails to compile is a configuration error at load
	// time, never an evaluation-time failure.
	Regex []string `yaml:"regex"`
}

// CostsConfig contains the model price table.
type CostsConfig struct {
	// Pricing maps a model identifier to its per-1K-token rates.
	// Model identifiers support prefix matching: "gpt-4" matches
	// "gpt-4-0613" when no exact entry exists.
	Pricing map[string]ModelRates `yaml:"pricing"`
}

// ModelRates are the per-1000-token rates for one model, in USD.
// Rates are converted to micro-USD integers at load time; all downstream
// arithmetic is fixed point.
type ModelRates struct {
	// PromptUSDPer1K is the cost of 1000 prompt tokens in USD.
	PromptUSDPer1K float64 `yaml:"prompt_usd_per_1k"`

	// CompletionUSDPer1K is the cost of 1000 completion tokens in USD.
	CompletionUSDPer1K float64 `yaml:"completion_usd_per_1k"`
}

// QualityConfig contains configuration for the quality scoring engine.
type QualityConfig struct {
	// Weights are the relative weights of the four sub-scores in the
	// composite health score. They need not sum to 1; the composite
	// normalizes by the weight total.
	Weights ScoreWeights `yaml:"weights"`

	// Hallucination configures the hallucination-risk heuristic.
	Hallucination HallucinationConfig `yaml:"hallucination"`

	// Performance configures the latency/throughput score.
	Performance PerformanceConfig `yaml:"performance"`

	// Response configures the response-quality score.
	Response ResponseQualityConfig `yaml:"response"`
}

// ScoreWeights are the composite-health weights for the four sub-scores.
// Each weight must be non-negative and the total must be positive.
type ScoreWeights struct {
	// Hallucination weights (1 - hallucinationRisk).
	// Default: 0.25
	Hallucination float64 `yaml:"hallucination"`

	// Performance weights the performance score.
	// Default: 0.25
	Performance float64 `yaml:"performance"`

	// Response weights the response-quality score.
	// Default: 0.25
	Response float64 `yaml:"response"`

	// Abuse weights (1 - abuseDetected).
	// Default: 0.25
	Abuse float64 `yaml:"abuse"`
}

// HallucinationConfig contains the phrase lists for the hallucination-risk
// heuristic. The lists are deliberately configuration, not code: there is
// no canonical weighting, only operator-tuned markers.
type HallucinationConfig struct {
	// OverconfidentPhrases are absolute/overconfident phrasings
	// ("definitely", "it is a proven fact that", ...).
	OverconfidentPhrases []string `yaml:"overconfident_phrases"`

	// UncitedClaimMarkers mark specific claims presented without a source
	// ("studies show", "experts agree", ...).
	UncitedClaimMarkers []string `yaml:"uncited_claim_markers"`

	// ContradictionMarkers mark self-contradiction within a response
	// ("on the other hand", "actually, no", ...).
	ContradictionMarkers []string `yaml:"contradiction_markers"`

	// PerMatchRisk is the risk added per matched phrase before capping
	// at 1.0.
	// Default: 0.15
	PerMatchRisk float64 `yaml:"per_match_risk"`
}

// PerformanceConfig contains targets for the performance score.
// The score degrades smoothly as latency rises past the target and as
// token throughput falls below the target; there are no threshold cliffs.
type PerformanceConfig struct {
	// TargetLatency is the latency at which the latency component of the
	// score has decayed to ~0.5.
	// Default: 3s
	TargetLatency time.Duration `yaml:"target_latency"`

	// TargetTokensPerSecond is the generation rate considered full speed.
	// Default: 50
	TargetTokensPerSecond float64 `yaml:"target_tokens_per_second"`
}

// ResponseQualityConfig contains thresholds and markers for the
// response-quality score.
type ResponseQualityConfig struct {
	// MinLength is the response length (in characters) below which the
	// response is penalized as too short.
	// Default: 20
	MinLength int `yaml:"min_length"`

	// ErrorMarkers are substrings that indicate an error leaked into the
	// response text ("internal error", "traceback", ...).
	ErrorMarkers []string `yaml:"error_markers"`

	// RefusalMarkers are substrings that indicate a refusal
	// ("i cannot help with", "i'm unable to", ...). A refusal is only
	// penalized when the request was Clean; a refusal of a Blocked
	// request is the expected outcome.
	RefusalMarkers []string `yaml:"refusal_markers"`
}

// AnomalyConfig contains rolling-window and trend-projection settings.
type AnomalyConfig struct {
	// Window is the total rolling window duration.
	// Default: 10m
	Window time.Duration `yaml:"window"`

	// BucketSize is the granularity of each time bucket. Smaller buckets
	// give finer trend resolution at the cost of memory.
	// Default: 30s
	BucketSize time.Duration `yaml:"bucket_size"`

	// Horizon is how far ahead trends are projected when checking for a
	// future threshold breach.
	// Default: 5m
	Horizon time.Duration `yaml:"horizon"`

	// MinBuckets is the minimum number of populated buckets required
	// before a trend is computed. Below this, no alerts fire.
	// Default: 3
	MinBuckets int `yaml:"min_buckets"`

	// Thresholds are the projected-value thresholds per tracked metric.
	Thresholds AnomalyThresholds `yaml:"thresholds"`
}

// AnomalyThresholds are the projection thresholds for each tracked metric.
// A zero threshold disables projection for that metric.
type AnomalyThresholds struct {
	// LatencyMs is the mean-latency threshold in milliseconds.
	// Default: 10000
	LatencyMs float64 `yaml:"latency_ms"`

	// ErrorRatio is the error-ratio threshold in [0,1].
	// Default: 0.25
	ErrorRatio float64 `yaml:"error_ratio"`

	// CostUSD is the mean per-exchange cost threshold in USD.
	// Default: 0.50
	CostUSD float64 `yaml:"cost_usd"`

	// Tokens is the mean per-exchange token-volume threshold.
	// Default: 8000
	Tokens float64 `yaml:"tokens"`
}

// TelemetryConfig contains settings for the telemetry emitter.
type TelemetryConfig struct {
	// QueueSize is the capacity of the bounded emission queue. When the
	// queue is full the oldest pending event is dropped; emission never
	// blocks the evaluation pipeline.
	// Default: 1024
	QueueSize int `yaml:"queue_size"`

	// RetryAttempts is the number of delivery retries before an event is
	// abandoned. Delivery failures are never propagated to callers.
	// Default: 2
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryBackoff is the base backoff between delivery retries.
	// Default: 100ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the /metrics endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`
}

// EvidenceConfig contains configuration for the evaluation audit store.
type EvidenceConfig struct {
	// Enabled controls whether completed evaluations are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	// Default: "data/evaluations.db"
	Path string `yaml:"path"`

	// RetentionDays is the number of days to keep evaluation records.
	// Zero disables age-based pruning.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records. Zero disables the cap.
	// Default: 100000
	MaxRecords int `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning
	// (e.g., "0 3 * * *" for daily at 3 AM). Empty disables scheduling.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`
}
