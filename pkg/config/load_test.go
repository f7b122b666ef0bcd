package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `
service:
  name: copilot-test
  environment: test
  safe_mode: true

guardrail:
  version: "2026-01"
  categories:
    prompt_injection:
      phrases: ["ignore previous instructions"]
    jailbreak:
      phrases: ["do anything now"]
    credential_extraction:
      phrases: ["api key"]
    system_prompt_theft:
      phrases: ["what are your instructions"]
    harmful_content:
      phrases: ["how do i hack"]

costs:
  pricing:
    gpt-4:
      prompt_usd_per_1k: 0.03
      completion_usd_per_1k: 0.06
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Service.Name != "copilot-test" {
		t.Errorf("Service.Name = %q, want copilot-test", cfg.Service.Name)
	}
	if !cfg.Service.SafeMode {
		t.Error("Service.SafeMode = false, want true")
	}
	if cfg.Guardrail.Version != "2026-01" {
		t.Errorf("Guardrail.Version = %q, want 2026-01", cfg.Guardrail.Version)
	}
	if got := cfg.Costs.Pricing["gpt-4"].PromptUSDPer1K; got != 0.03 {
		t.Errorf("gpt-4 prompt rate = %v, want 0.03", got)
	}

	// Defaults fill the unspecified sections.
	if cfg.Anomaly.Window != DefaultAnomalyWindow {
		t.Errorf("Anomaly.Window = %v, want default %v", cfg.Anomaly.Window, DefaultAnomalyWindow)
	}
	if cfg.Logging.Level != DefaultLoggingLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLoggingLevel)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadConfig() on missing file expected error, got nil")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "service: [not: valid\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() on malformed YAML expected error, got nil")
	}
}

func TestLoadConfig_MissingCatalogue(t *testing.T) {
	path := writeTempConfig(t, `
costs:
  pricing:
    gpt-4:
      prompt_usd_per_1k: 0.03
      completion_usd_per_1k: 0.06
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() without a catalogue expected error, got nil")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	t.Setenv("COPILOT_SERVICE_ENVIRONMENT", "staging")
	t.Setenv("COPILOT_LOGGING_LEVEL", "debug")
	t.Setenv("COPILOT_TELEMETRY_QUEUE_SIZE", "64")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error: %v", err)
	}

	if cfg.Service.Environment != "staging" {
		t.Errorf("Service.Environment = %q, want staging", cfg.Service.Environment)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Telemetry.QueueSize != 64 {
		t.Errorf("Telemetry.QueueSize = %d, want 64", cfg.Telemetry.QueueSize)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	t.Setenv("COPILOT_TELEMETRY_QUEUE_SIZE", "-5")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Fatal("expected validation error after invalid override, got nil")
	}
}
