// Package cli provides the command-line interface for the decision engine.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"options-trader/internal/config"
	"options-trader/internal/logging"
)

var (
	configDir string
	debugMode bool
)

var rootCmd = &cobra.Command{
	Use:   "options-trader",
	Short: "Intraday options decision engine",
	Long: `options-trader classifies the market context from recorded or live
data, aggregates strategy signals into one decision per tick, and
simulates the full position lifecycle with realistic fills and costs.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.config/options-trader)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

// loadConfig loads configuration and applies global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if debugMode {
		logging.SetDebugLevel()
	}
	return cfg, nil
}
