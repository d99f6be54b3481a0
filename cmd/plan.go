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

// newPlanCmd creates the 'plan' subcommand: reconnaissance plus strategy
// classification, stopping short of the harvest itself.
func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Profiles catalogs and prints the crawl plan",
		Long: `Profiles the public catalogs, assigns each endpoint a traversal strategy,
writes the profile and plan artifacts, and prints the plan.`,
		RunE: runPlanCommand,
	}
}

func runPlanCommand(cmd *cobra.Command, _ []string) error {
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
	plan, err := application.Pipeline.Plan(ctx, runID, descriptors)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
