// Package snapshot aggregates parsed sheet tables into the versioned JSON
// artifact consumed downstream.
package snapshot

import (
	"fmt"
	"time"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheetcsv"
)

// Schema version tags of the artifact. Bump MetaSchemaVersion when the
// shape of meta changes; ConfigSchemaVersion tracks the config block.
const (
	MetaSchemaVersion   = "2.0"
	ConfigSchemaVersion = "1.0"
)

// Meta is the generation metadata block of a snapshot.
type Meta struct {
	GeneratedAt            string `json:"generated_at"`
	SourceSheetID          string `json:"source_sheet_id"`
	ReportingQuarter       string `json:"reporting_quarter"`
	ReportingYear          int    `json:"reporting_year"`
	ReportingQuarterNumber int    `json:"reporting_quarter_number"`
	SchemaVersion          string `json:"schema_version"`
}

// Config is the artifact's config block.
type Config struct {
	SchemaVersion string `json:"schema_version"`
}

// Snapshot is the complete aggregate artifact. Each run rebuilds one from
// scratch and fully replaces the persisted copy.
type Snapshot struct {
	Meta   Meta                      `json:"meta"`
	Sheets map[string]sheetcsv.Table `json:"sheets"`
	Config Config                    `json:"config"`
}

// Quarter returns the calendar quarter (1-4) of t, computed as
// ceil(month/3).
func Quarter(t time.Time) int {
	return (int(t.Month()) + 2) / 3
}

// NewMeta computes the metadata block from wall-clock time at completion.
func NewMeta(now time.Time, sheetID string) Meta {
	year := now.Year()
	q := Quarter(now)
	return Meta{
		GeneratedAt:            now.Format(time.RFC3339),
		SourceSheetID:          sheetID,
		ReportingQuarter:       quarterTag(year, q),
		ReportingYear:          year,
		ReportingQuarterNumber: q,
		SchemaVersion:          MetaSchemaVersion,
	}
}

func quarterTag(year, quarter int) string {
	// Pattern ^\d{4}Q[1-4]$.
	return fmt.Sprintf("%04dQ%d", year, quarter)
}
