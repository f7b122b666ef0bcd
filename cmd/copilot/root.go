package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "LLM observability copilot - real-time evaluation pipeline",
	Long: `Copilot evaluates LLM chat traffic in real time.

Each exchange flows through:
  - Guardrail screening against a versioned attack-pattern catalogue
  - Fixed-point cost estimation from a per-model price table
  - Quality scoring (hallucination risk, performance, response quality,
    abuse) with a composite health score
  - Rolling-window anomaly detection with predictive trend alerts
  - Telemetry emission under the stable llm.* metric contract`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
