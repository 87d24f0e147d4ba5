package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/config"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/fetchpool"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheets"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/snapshot"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch all sources once and write the snapshot",
		Long: `Fetch every configured source, parse it, and write the aggregate
snapshot artifact.

A source whose fetch or parse fails contributes an empty table and does not
fail the run; only being unable to write the artifact does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg)
		},
	}
}

// runOnce executes one full fetch-parse-write cycle.
func runOnce(ctx context.Context, cfg *config.Config) error {
	logger := slog.Default().With("run", uuid.NewString())

	client, err := sheets.NewClient(cfg.BaseURL, cfg.SheetID, cfg.Timeout)
	if err != nil {
		return err
	}

	builder := snapshot.NewBuilder(client, cfg.SheetID, logger, snapshot.BuilderOptions{
		Pool: fetchpool.Options{
			Workers:      cfg.Workers,
			MaxRetries:   cfg.MaxRetries,
			RateLimitRPS: cfg.RateLimitRPS,
		},
	})

	logger.Info("run start",
		"sheet_id", cfg.SheetID,
		"sources", len(cfg.Sources),
		"workers", cfg.Workers,
		"output", cfg.OutputPath)

	snap, err := builder.Build(ctx, cfg.SheetSources())
	if err != nil {
		return err
	}
	if err := snap.WriteFile(cfg.OutputPath); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	logger.Info("run complete",
		"output", cfg.OutputPath,
		"sources", len(snap.Sheets),
		"rows", snap.TotalRows())
	return nil
}
