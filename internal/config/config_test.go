package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/config"
)

func writeConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()
	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sheetcache.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func sampleConfig() map[string]any {
	return map[string]any{
		"sheet_id":    "sheet-abc",
		"output_path": "out/data.json",
		"workers":     3,
		"sources": []map[string]any{
			{"key": "startups", "name": "Startups", "gid": "101"},
			{"key": "investors", "name": "Investors", "gid": "202"},
		},
	}
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig()), nil)
	require.NoError(t, err)

	assert.Equal(t, "sheet-abc", cfg.SheetID)
	assert.Equal(t, "out/data.json", cfg.OutputPath)
	assert.Equal(t, 3, cfg.Workers)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "startups", cfg.Sources[0].Key)
	assert.Equal(t, "202", cfg.Sources[1].GID)

	// Defaults fill what the file leaves out.
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, "0 */6 * * *", cfg.Schedule)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SHEETCACHE_SHEET_ID", "sheet-env")
	t.Setenv("SHEETCACHE_WORKERS", "5")

	cfg, err := config.Load(writeConfig(t, sampleConfig()), nil)
	require.NoError(t, err)
	assert.Equal(t, "sheet-env", cfg.SheetID)
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SHEETCACHE_WORKERS", "5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.String("output-path", "", "")
	require.NoError(t, flags.Parse([]string{"--workers=7", "--output-path=elsewhere.json"}))

	cfg, err := config.Load(writeConfig(t, sampleConfig()), flags)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "elsewhere.json", cfg.OutputPath)
}

func TestLoadUnchangedFlagsDoNotOverride(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 99, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(writeConfig(t, sampleConfig()), flags)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers, "flag default must not clobber the file value")
}

func TestLoadExplicitMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			SheetID: "sheet-abc",
			Sources: []config.SourceConfig{
				{Key: "startups", GID: "101"},
			},
		}
	}

	t.Run("accepts a minimal config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects missing sheet id", func(t *testing.T) {
		cfg := valid()
		cfg.SheetID = "  "
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty source list", func(t *testing.T) {
		cfg := valid()
		cfg.Sources = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects source without key", func(t *testing.T) {
		cfg := valid()
		cfg.Sources = append(cfg.Sources, config.SourceConfig{GID: "7"})
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects source without gid", func(t *testing.T) {
		cfg := valid()
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Key: "x"})
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects duplicate keys", func(t *testing.T) {
		cfg := valid()
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Key: "startups", GID: "9"})
		assert.Error(t, cfg.Validate())
	})
}

func TestSheetSourcesPreservesOrderAndTrims(t *testing.T) {
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{Key: " b ", Name: " B ", GID: " 2 "},
			{Key: "a", Name: "A", GID: "1"},
		},
	}
	got := cfg.SheetSources()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Key)
	assert.Equal(t, "2", got[0].GID)
	assert.Equal(t, "a", got[1].Key)
}
