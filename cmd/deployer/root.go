package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/K-Pomian/synthetify-protocol/internal/config"
	"github.com/K-Pomian/synthetify-protocol/internal/metrics"
	"github.com/K-Pomian/synthetify-protocol/internal/util"
)

var (
	cfgFile  string
	logLevel string

	// cfg and logger are populated by PersistentPreRunE and shared with all subcommands.
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "deployer",
	Short: "Synthetify exchange bootstrap tool",
	Long: `deployer creates the collateral feed and token, initializes the exchange,
attaches an assets list and registers every synthetic from the manifest.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/devnet.yaml", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error); append :pretty for console output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") || cfg.App.LogLevel == "" {
			cfg.App.LogLevel = logLevel
		}
		// stdout is reserved for reports.
		logger = util.NewLoggerTo(os.Stderr, cfg.App.LogLevel)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", cfgFile, err)
		}
		if cfg.App.MetricsAddr != "" {
			metrics.Serve(cfg.App.MetricsAddr)
			logger.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics listening")
		}
		return nil
	}

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(authorityCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
