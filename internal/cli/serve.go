package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var immediate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Rebuild the snapshot on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()

			// Overlapping runs are skipped rather than queued; a slow
			// fetch cycle must not pile up behind itself.
			var running sync.Mutex
			job := func() {
				if !running.TryLock() {
					logger.Warn("previous run still in progress, skipping this tick")
					return
				}
				defer running.Unlock()
				if err := runOnce(ctx, cfg); err != nil {
					logger.Error("scheduled run failed", "error", err)
				}
			}

			sched := cron.New()
			if _, err := sched.AddFunc(cfg.Schedule, job); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
			}

			logger.Info("scheduler started", "schedule", cfg.Schedule)
			if immediate {
				job()
			}
			sched.Start()

			<-ctx.Done()
			logger.Info("shutting down, waiting for in-flight run")
			<-sched.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&immediate, "immediate", true, "Run once at startup before the first scheduled tick")
	return cmd
}
