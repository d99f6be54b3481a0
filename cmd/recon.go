package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geoharvest/stac-harvester/internal/app"
	"github.com/geoharvest/stac-harvester/internal/id/uuid"
)

// newReconCmd creates the 'recon' subcommand: profile the catalog index
// without harvesting anything.
func newReconCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recon",
		Short: "Profiles public catalogs without harvesting",
		Long: `Lists the public catalogs registered in the index, probes each root URL
for reachability, writes the profile artifact, and prints the descriptors.`,
		RunE: runReconCommand,
	}
}

func runReconCommand(cmd *cobra.Command, _ []string) error {
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

	runID, err := uuid.NewGenerator().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}

	descriptors, err := application.Pipeline.Profile(ctx, runID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(descriptors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal descriptors: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
