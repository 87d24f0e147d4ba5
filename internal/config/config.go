// Package config assembles runtime configuration from layered sources:
// built-in defaults, an optional YAML file, SHEETCACHE_-prefixed
// environment variables, and CLI flags, in increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheets"
)

// SourceConfig is one configured sheet tab.
type SourceConfig struct {
	Key  string `koanf:"key"`
	Name string `koanf:"name"`
	GID  string `koanf:"gid"`
}

// Config is the full runtime configuration.
type Config struct {
	// SheetID is the identifier of the source spreadsheet. Required.
	SheetID string `koanf:"sheet_id"`
	// BaseURL overrides the export host; empty means the public one.
	BaseURL string `koanf:"base_url"`
	// OutputPath is where the snapshot artifact is written.
	OutputPath string `koanf:"output_path"`
	// Timeout bounds each export request.
	Timeout time.Duration `koanf:"timeout"`

	// Workers, MaxRetries, and RateLimitRPS tune the fetch pool.
	Workers      int     `koanf:"workers"`
	MaxRetries   int     `koanf:"max_retries"`
	RateLimitRPS float64 `koanf:"rate_limit_rps"`

	// Schedule is the cron spec used by the serve command.
	Schedule string `koanf:"schedule"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Sources is the ordered list of tabs to cache.
	Sources []SourceConfig `koanf:"sources"`
}

// Validate checks the parts every run needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SheetID) == "" {
		return fmt.Errorf("sheet_id is required (set sheet_id in %s or SHEETCACHE_SHEET_ID)", DefaultConfigFile)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for i, s := range c.Sources {
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("sources[%d]: key is required", i)
		}
		if strings.TrimSpace(s.GID) == "" {
			return fmt.Errorf("source %q: gid is required", s.Key)
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("source key %q is configured twice", s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return nil
}

// SheetSources converts the configured tabs to fetcher descriptors,
// preserving order.
func (c *Config) SheetSources() []sheets.Source {
	out := make([]sheets.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		out = append(out, sheets.Source{
			Key:  strings.TrimSpace(s.Key),
			Name: strings.TrimSpace(s.Name),
			GID:  strings.TrimSpace(s.GID),
		})
	}
	return out
}
