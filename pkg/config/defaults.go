package config

import "time"

// Default values for configuration fields.
const (
	// Service defaults
	DefaultServiceName = "llm-observability-copilot"
	DefaultEnvironment = "dev"

	// Guardrail defaults
	DefaultCatalogueVersion = "unversioned"

	// Quality defaults
	DefaultWeightHallucination = 0.25
	DefaultWeightPerformance   = 0.25
	DefaultWeightResponse      = 0.25
	DefaultWeightAbuse         = 0.25
	DefaultPerMatchRisk        = 0.15
	DefaultTargetLatency       = 3 * time.Second
	DefaultTargetTokensPerSec  = 50.0
	DefaultMinResponseLength   = 20

	// Anomaly defaults
	DefaultAnomalyWindow       = 10 * time.Minute
	DefaultAnomalyBucketSize   = 30 * time.Second
	DefaultAnomalyHorizon      = 5 * time.Minute
	DefaultAnomalyMinBuckets   = 3
	DefaultLatencyThresholdMs  = 10000.0
	DefaultErrorRatioThreshold = 0.25
	DefaultCostThresholdUSD    = 0.50
	DefaultTokensThreshold     = 8000.0

	// Telemetry defaults
	DefaultQueueSize            = 1024
	DefaultRetryAttempts        = 2
	DefaultRetryBackoff         = 100 * time.Millisecond
	DefaultMetricsListenAddress = "127.0.0.1:9090"

	// Evidence defaults
	DefaultEvidencePath          = "data/evaluations.db"
	DefaultEvidenceRetentionDays = 30
	DefaultEvidenceMaxRecords    = 100000
	DefaultEvidencePruneSchedule = "0 3 * * *"

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
)

// Default phrase lists for the quality scoring heuristics. These are
// starting points, not canonical values; operators override them in YAML.
var (
	// DefaultOverconfidentPhrases mark absolute or overconfident phrasing.
	DefaultOverconfidentPhrases = []string{
		"definitely", "absolutely certain", "without a doubt",
		"it is a proven fact", "always true", "never fails",
		"100% accurate", "guaranteed to",
	}

	// DefaultUncitedClaimMarkers mark specific claims with no source.
	DefaultUncitedClaimMarkers = []string{
		"studies show", "research proves", "experts agree",
		"scientists have found", "statistics indicate",
		"it is well known that",
	}

	// DefaultContradictionMarkers mark self-contradiction in a response.
	DefaultContradictionMarkers = []string{
		"on the other hand", "however, the opposite",
		"actually, no", "wait, that's wrong", "correction:",
	}

	// DefaultErrorMarkers mark provider errors leaking into response text.
	DefaultErrorMarkers = []string{
		"internal error", "internal server error", "traceback",
		"stack trace", "exception:", "null pointer",
	}

	// DefaultRefusalMarkers mark a refusal response.
	DefaultRefusalMarkers = []string{
		"i cannot help with", "i can't help with", "i cannot assist",
		"i'm unable to", "i am unable to", "i won't be able to",
		"i cannot provide", "request blocked",
	}
)

// ApplyDefaults applies default values to any unset configuration fields.
// The guardrail catalogue and the price table deliberately have no
// defaults: both are required external configuration, and a missing entry
// must fail validation rather than be papered over.
func ApplyDefaults(cfg *Config) {
	applyServiceDefaults(&cfg.Service)
	applyGuardrailDefaults(&cfg.Guardrail)
	applyQualityDefaults(&cfg.Quality)
	applyAnomalyDefaults(&cfg.Anomaly)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyEvidenceDefaults(&cfg.Evidence)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServiceDefaults(cfg *ServiceConfig) {
	if cfg.Name == "" {
		cfg.Name = DefaultServiceName
	}
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
}

func applyGuardrailDefaults(cfg *GuardrailConfig) {
	if cfg.Version == "" {
		cfg.Version = DefaultCatalogueVersion
	}
}

func applyQualityDefaults(cfg *QualityConfig) {
	// An all-zero weight set means "unset"; a partially-set weight set is
	// kept as-is and caught by validation if the total is not positive.
	if cfg.Weights == (ScoreWeights{}) {
		cfg.Weights = ScoreWeights{
			Hallucination: DefaultWeightHallucination,
			Performance:   DefaultWeightPerformance,
			Response:      DefaultWeightResponse,
			Abuse:         DefaultWeightAbuse,
		}
	}

	if len(cfg.Hallucination.OverconfidentPhrases) == 0 {
		cfg.Hallucination.OverconfidentPhrases = DefaultOverconfidentPhrases
	}
	if len(cfg.Hallucination.UncitedClaimMarkers) == 0 {
		cfg.Hallucination.UncitedClaimMarkers = DefaultUncitedClaimMarkers
	}
	if len(cfg.Hallucination.ContradictionMarkers) == 0 {
		cfg.Hallucination.ContradictionMarkers = DefaultContradictionMarkers
	}
	if cfg.Hallucination.PerMatchRisk == 0 {
		cfg.Hallucination.PerMatchRisk = DefaultPerMatchRisk
	}

	if cfg.Performance.TargetLatency == 0 {
		cfg.Performance.TargetLatency = DefaultTargetLatency
	}
	if cfg.Performance.TargetTokensPerSecond == 0 {
		cfg.Performance.TargetTokensPerSecond = DefaultTargetTokensPerSec
	}

	if cfg.Response.MinLength == 0 {
		cfg.Response.MinLength = DefaultMinResponseLength
	}
	if len(cfg.Response.ErrorMarkers) == 0 {
		cfg.Response.ErrorMarkers = DefaultErrorMarkers
	}
	if len(cfg.Response.RefusalMarkers) == 0 {
		cfg.Response.RefusalMarkers = DefaultRefusalMarkers
	}
}

func applyAnomalyDefaults(cfg *AnomalyConfig) {
	if cfg.Window == 0 {
		cfg.Window = DefaultAnomalyWindow
	}
	if cfg.BucketSize == 0 {
		cfg.BucketSize = DefaultAnomalyBucketSize
	}
	if cfg.Horizon == 0 {
		cfg.Horizon = DefaultAnomalyHorizon
	}
	if cfg.MinBuckets == 0 {
		cfg.MinBuckets = DefaultAnomalyMinBuckets
	}
	if cfg.Thresholds == (AnomalyThresholds{}) {
		cfg.Thresholds = AnomalyThresholds{
			LatencyMs:  DefaultLatencyThresholdMs,
			ErrorRatio: DefaultErrorRatioThreshold,
			CostUSD:    DefaultCostThresholdUSD,
			Tokens:     DefaultTokensThreshold,
		}
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}

func applyEvidenceDefaults(cfg *EvidenceConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultEvidencePath
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultEvidenceRetentionDays
	}
	if cfg.MaxRecords == 0 {
		cfg.MaxRecords = DefaultEvidenceMaxRecords
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = DefaultEvidencePruneSchedule
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLoggingLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLoggingFormat
	}
}
