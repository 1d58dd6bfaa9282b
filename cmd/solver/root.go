package main

import (
	"fmt"

	"solver-rebalancer/config"
	"solver-rebalancer/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ./config.yaml or ./config/config.yaml)")
}

var rootCmd = &cobra.Command{
	Use:   "solver",
	Short: "Cross-chain liquidity rebalancer for an intent solver",
	Long: `solver polls the settlement hub for open invoices, purchases the ones it
can fund with split intents, and rebalances inventory across domains when it
cannot. Settings come from a YAML file overridden by SLV_* environment variables.`,
	SilenceUsage: true,
}

// loadConfig reads and validates configuration and builds the root logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid config: %w", err)
	}
	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		Service: "solver-rebalancer",
	})
	return cfg, log, nil
}
