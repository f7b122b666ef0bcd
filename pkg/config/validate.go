package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// CategoryKeys are the required guardrail catalogue keys, in priority
// order. A catalogue missing any of these fails validation: a partial
// catalogue silently passing attack traffic is worse than refusing to
// start.
var CategoryKeys = []string{
	"prompt_injection",
	"jailbreak",
	"credential_extraction",
	"system_prompt_theft",
	"harmful_content",
}

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "costs.pricing").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is
// valid. All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateService(&cfg.Service)...)
	errs = append(errs, validateGuardrail(&cfg.Guardrail)...)
	errs = append(errs, validateCosts(&cfg.Costs)...)
	errs = append(errs, validateQuality(&cfg.Quality)...)
	errs = append(errs, validateAnomaly(&cfg.Anomaly)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateService(cfg *ServiceConfig) []FieldError {
	var errs []FieldError

	if cfg.Name == "" {
		errs = append(errs, FieldError{
			Field:   "service.name",
			Message: "service name is required",
		})
	}
	if cfg.Environment == "" {
		errs = append(errs, FieldError{
			Field:   "service.environment",
			Message: "environment is required",
		})
	}

	return errs
}

func validateGuardrail(cfg *GuardrailConfig) []FieldError {
	var errs []FieldError

	if len(cfg.Categories) == 0 {
		errs = append(errs, FieldError{
			Field:   "guardrail.categories",
			Message: "pattern catalogue is required and has no default",
		})
		return errs
	}

	for _, key := range CategoryKeys {
		set, ok := cfg.Categories[key]
		if !ok {
			errs = append(errs, FieldError{
				Field:   "guardrail.categories." + key,
				Message: "category is missing from the catalogue",
			})
			continue
		}
		if len(set.Phrases) == 0 && len(set.Regex) == 0 {
			errs = append(errs, FieldError{
				Field:   "guardrail.categories." + key,
				Message: "category has no patterns",
			})
		}
		for _, expr := range set.Regex {
			if _, err := regexp.Compile("(?i)" + expr); err != nil {
				errs = append(errs, FieldError{
					Field:   "guardrail.categories." + key,
					Message: fmt.Sprintf("invalid regex %q: %v", expr, err),
				})
			}
		}
	}

	for key := range cfg.Categories {
		if !isKnownCategory(key) {
			errs = append(errs, FieldError{
				Field:   "guardrail.categories." + key,
				Message: "unknown category key",
			})
		}
	}

	return errs
}

func validateCosts(cfg *CostsConfig) []FieldError {
	var errs []FieldError

	if len(cfg.Pricing) == 0 {
		errs = append(errs, FieldError{
			Field:   "costs.pricing",
			Message: "price table is required and has no default",
		})
		return errs
	}

	for model, rates := range cfg.Pricing {
		if rates.PromptUSDPer1K < 0 {
			errs = append(errs, FieldError{
				Field:   "costs.pricing." + model,
				Message: "prompt rate must not be negative",
			})
		}
		if rates.CompletionUSDPer1K < 0 {
			errs = append(errs, FieldError{
				Field:   "costs.pricing." + model,
				Message: "completion rate must not be negative",
			})
		}
	}

	return errs
}

func validateQuality(cfg *QualityConfig) []FieldError {
	var errs []FieldError

	w := cfg.Weights
	for field, val := range map[string]float64{
		"quality.weights.hallucination": w.Hallucination,
		"quality.weights.performance":   w.Performance,
		"quality.weights.response":      w.Response,
		"quality.weights.abuse":         w.Abuse,
	} {
		if val < 0 {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "weight must not be negative",
			})
		}
	}
	if w.Hallucination+w.Performance+w.Response+w.Abuse <= 0 {
		errs = append(errs, FieldError{
			Field:   "quality.weights",
			Message: "weight total must be positive",
		})
	}

	if cfg.Hallucination.PerMatchRisk < 0 || cfg.Hallucination.PerMatchRisk > 1 {
		errs = append(errs, FieldError{
			Field:   "quality.hallucination.per_match_risk",
			Message: "per-match risk must be in [0,1]",
		})
	}
	if cfg.Performance.TargetLatency <= 0 {
		errs = append(errs, FieldError{
			Field:   "quality.performance.target_latency",
			Message: "target latency must be positive",
		})
	}
	if cfg.Performance.TargetTokensPerSecond <= 0 {
		errs = append(errs, FieldError{
			Field:   "quality.performance.target_tokens_per_second",
			Message: "target tokens per second must be positive",
		})
	}
	if cfg.Response.MinLength < 0 {
		errs = append(errs, FieldError{
			Field:   "quality.response.min_length",
			Message: "minimum length must not be negative",
		})
	}

	return errs
}

func validateAnomaly(cfg *AnomalyConfig) []FieldError {
	var errs []FieldError

	if cfg.Window <= 0 {
		errs = append(errs, FieldError{
			Field:   "anomaly.window",
			Message: "window must be positive",
		})
	}
	if cfg.BucketSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "anomaly.bucket_size",
			Message: "bucket size must be positive",
		})
	}
	if cfg.BucketSize > 0 && cfg.Window > 0 && cfg.BucketSize > cfg.Window {
		errs = append(errs, FieldError{
			Field:   "anomaly.bucket_size",
			Message: "bucket size must not exceed the window",
		})
	}
	if cfg.Horizon <= 0 {
		errs = append(errs, FieldError{
			Field:   "anomaly.horizon",
			Message: "projection horizon must be positive",
		})
	}
	if cfg.MinBuckets < 2 {
		errs = append(errs, FieldError{
			Field:   "anomaly.min_buckets",
			Message: "at least 2 buckets are required to fit a trend",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if cfg.QueueSize <= 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.queue_size",
			Message: "queue size must be positive",
		})
	}
	if cfg.RetryAttempts < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.retry_attempts",
			Message: "retry attempts must not be negative",
		})
	}
	if cfg.RetryBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.retry_backoff",
			Message: "retry backoff must not be negative",
		})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.listen_address",
			Message: "listen address is required when metrics are enabled",
		})
	}

	return errs
}

func validateEvidence(cfg *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "evidence.path",
			Message: "database path is required when evidence is enabled",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention_days",
			Message: "retention days must not be negative",
		})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.max_records",
			Message: "max records must not be negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "evidence.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
			})
		}
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Level),
		})
	}

	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Format),
		})
	}

	return errs
}

func isKnownCategory(key string) bool {
	for _, k := range CategoryKeys {
		if k == key {
			return true
		}
	}
	return false
}
