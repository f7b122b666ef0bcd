package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"llmobs-hq/copilot/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without starting anything.

Validation fails fast on the errors that would otherwise surface at
startup: a missing or partial guardrail catalogue, an empty price table,
malformed regex patterns, or an invalid retention schedule.

Examples:
  copilot validate
  copilot validate --config /etc/copilot/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	fmt.Println("✓ Configuration valid")
	fmt.Printf("  Service:             %s (%s)\n", cfg.Service.Name, cfg.Service.Environment)
	fmt.Printf("  Guardrail catalogue: version %s, %d categories\n",
		cfg.Guardrail.Version, len(cfg.Guardrail.Categories))
	fmt.Printf("  Priced models:       %d\n", len(cfg.Costs.Pricing))
	fmt.Printf("  Anomaly window:      %s in %s buckets, horizon %s\n",
		cfg.Anomaly.Window, cfg.Anomaly.BucketSize, cfg.Anomaly.Horizon)
	if cfg.Evidence.Enabled {
		fmt.Printf("  Evidence store:      %s (retain %dd, cap %d)\n",
			cfg.Evidence.Path, cfg.Evidence.RetentionDays, cfg.Evidence.MaxRecords)
	} else {
		fmt.Println("  Evidence store:      disabled")
	}

	return nil
}
