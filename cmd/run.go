package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/app"
)

// newRunCmd creates the 'run' subcommand, which executes the full pipeline:
// reconnaissance, planning, harvesting, and knowledge-base assembly.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes a full harvest run",
		Long: `Profiles every public catalog in the index, classifies each endpoint,
harvests collection metadata with the planned traversal engine, and writes
the knowledge-base artifact. Run and endpoint metadata are recorded when a
database is configured.`,
		RunE: runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer application.Close(context.Background())

	summary, err := application.Pipeline.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("harvest run: %w", err)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	logger.Info("run command finished", zap.String("run_id", summary.RunID))
	return nil
}
