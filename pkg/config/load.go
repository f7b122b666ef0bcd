package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention COPILOT_SECTION_FIELD (e.g., COPILOT_SERVICE_NAME) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format COPILOT_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Service overrides
	if val := os.Getenv("COPILOT_SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := os.Getenv("COPILOT_SERVICE_ENVIRONMENT"); val != "" {
		cfg.Service.Environment = val
	}
	if val := os.Getenv("COPILOT_SERVICE_SAFE_MODE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Service.SafeMode = b
		}
	}

	// Guardrail overrides
	if val := os.Getenv("COPILOT_GUARDRAIL_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guardrail.Watch = b
		}
	}

	// Anomaly overrides
	if val := os.Getenv("COPILOT_ANOMALY_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Anomaly.Window = d
		}
	}
	if val := os.Getenv("COPILOT_ANOMALY_HORIZON"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Anomaly.Horizon = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("COPILOT_TELEMETRY_QUEUE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.QueueSize = i
		}
	}
	if val := os.Getenv("COPILOT_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("COPILOT_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}

	// Evidence overrides
	if val := os.Getenv("COPILOT_EVIDENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evidence.Enabled = b
		}
	}
	if val := os.Getenv("COPILOT_EVIDENCE_PATH"); val != "" {
		cfg.Evidence.Path = val
	}

	// Logging overrides
	if val := os.Getenv("COPILOT_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("COPILOT_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}
