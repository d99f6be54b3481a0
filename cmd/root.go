// Package cmd defines and implements the CLI commands for the harvester
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/config"
	"github.com/geoharvest/stac-harvester/internal/logging"
)

var (
	cfgFile string
	envFile string
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stac-harvester",
		Short: "Harvests collection metadata from public STAC catalogs",
		Long: `stac-harvester profiles the public catalogs registered in a STAC index,
plans a traversal strategy per endpoint, and harvests their collection
metadata into a knowledge-base artifact.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults and env vars apply without one")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")

	cmd.AddCommand(newReconCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the dotenv file (if present), the configuration, and a logger.
func setup() (config.Config, *zap.Logger, error) {
	if envFile != "" {
		// A missing dotenv file is normal outside local development.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return config.Config{}, nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
