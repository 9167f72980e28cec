package main

import (
	"fmt"
	"os"

	"IndexImpact/pkg/config"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the indeximpact CLI
var rootCmd = &cobra.Command{
	Use:   "indeximpact",
	Short: "Per-constituent impact on stock index returns",
	Long: `indeximpact fetches prices and market capitalizations for the constituents
of the configured indices, weights them by price or capitalization and ranks
each stock by its contribution to the index's return.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
