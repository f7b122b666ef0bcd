// Package config provides configuration management for the LLM
// Observability Copilot evaluation core.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. Two sections are required
// external configuration with no defaults: the guardrail pattern catalogue
// (guardrail.categories) and the model price table (costs.pricing). A
// configuration missing either fails validation at startup rather than
// defaulting silently.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention COPILOT_SECTION_FIELD.
// For example:
//
//   - COPILOT_SERVICE_NAME overrides service.name
//   - COPILOT_SERVICE_SAFE_MODE overrides service.safe_mode
//   - COPILOT_LOGGING_LEVEL overrides logging.level
//
// Environment variables always take precedence over file-based
// configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
package config
