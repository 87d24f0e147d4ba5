package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/fetchpool"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheetcsv"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheets"
)

// Fetcher retrieves the raw CSV text for one source tab.
type Fetcher interface {
	FetchCSV(ctx context.Context, src sheets.Source) (string, error)
}

// BuilderOptions tune how the Builder walks the source list.
type BuilderOptions struct {
	// Pool configures per-source concurrency, retry, and rate limiting.
	// The zero value is strictly sequential with no retries.
	Pool fetchpool.Options
	// Now overrides the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// Builder produces a Snapshot from an ordered list of source tabs.
type Builder struct {
	fetcher Fetcher
	sheetID string
	logger  *slog.Logger
	opts    BuilderOptions
}

// NewBuilder constructs a Builder. logger may be nil for slog.Default.
func NewBuilder(fetcher Fetcher, sheetID string, logger *slog.Logger, opts BuilderOptions) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{
		fetcher: fetcher,
		sheetID: sheetID,
		logger:  logger,
		opts:    opts,
	}
}

// Build fetches and parses every source and assembles the aggregate.
//
// A source whose fetch or parse fails contributes an empty table under its
// key; the run itself only fails when ctx is done. Metadata is computed
// once, after all sources are processed. Each result key is written exactly
// once, by the fold below, so raising Pool.Workers never races on the map.
func (b *Builder) Build(ctx context.Context, sources []sheets.Source) (*Snapshot, error) {
	start := b.opts.Now()

	results, err := fetchpool.Run(ctx, sources, func(ctx context.Context, src sheets.Source) (sheetcsv.Table, error) {
		b.logger.Debug("fetching source", "source", src.Key, "gid", src.GID)
		text, err := b.fetcher.FetchCSV(ctx, src)
		if err != nil {
			return nil, err
		}
		return sheetcsv.Parse(text), nil
	}, b.opts.Pool)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]sheetcsv.Table, len(sources))
	for _, res := range results {
		src := res.Input
		if res.Err != nil {
			b.logger.Warn("source failed, storing empty table",
				"source", src.Key,
				"name", src.Name,
				"error", res.Err)
			tables[src.Key] = make(sheetcsv.Table, 0)
			continue
		}
		b.logger.Info("source fetched",
			"source", src.Key,
			"name", src.Name,
			"rows", len(res.Output))
		tables[src.Key] = res.Output
	}

	now := b.opts.Now()
	snap := &Snapshot{
		Meta:   NewMeta(now, b.sheetID),
		Sheets: tables,
		Config: Config{SchemaVersion: ConfigSchemaVersion},
	}
	b.logger.Info("snapshot assembled",
		"sources", len(sources),
		"rows", snap.TotalRows(),
		"quarter", snap.Meta.ReportingQuarter,
		"duration", now.Sub(start).Round(time.Millisecond))
	return snap, nil
}

// TotalRows counts rows across all tables.
func (s *Snapshot) TotalRows() int {
	n := 0
	for _, t := range s.Sheets {
		n += len(t)
	}
	return n
}
