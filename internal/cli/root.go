// Package cli provides the sheetcache command-line interface.
package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store the loaded config in the command context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sheetcache",
		Short: "Cache public spreadsheet exports as a versioned JSON snapshot",
		Long: `sheetcache fetches the configured tabs of a public spreadsheet as CSV,
parses them, and aggregates everything into one versioned JSON snapshot.

Sources are listed in sheetcache.yaml; the sheet id can also be supplied
via SHEETCACHE_SHEET_ID.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel, cfg.LogFormat)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file path (default sheetcache.yaml)")
	pf.String("sheet-id", "", "Source spreadsheet id (env: SHEETCACHE_SHEET_ID)")
	pf.String("base-url", "", "Export host override, mainly for testing")
	pf.String("output-path", "", "Snapshot artifact path")
	pf.Duration("timeout", 0, "Per-export request timeout")
	pf.Int("workers", 0, "Concurrent source fetches (1 = sequential)")
	pf.Int("max-retries", 0, "Extra attempts per source for transient failures")
	pf.Float64("rate-limit-rps", 0, "Global fetch rate limit, 0 disables")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// configFromContext returns the config loaded by PersistentPreRunE.
func configFromContext(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

func setupLogging(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
