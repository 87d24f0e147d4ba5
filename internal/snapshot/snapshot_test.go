package snapshot_test

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/sheetcsv"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/snapshot"
)

func TestQuarter(t *testing.T) {
	want := map[time.Month]int{
		time.January: 1, time.February: 1, time.March: 1,
		time.April: 2, time.May: 2, time.June: 2,
		time.July: 3, time.August: 3, time.September: 3,
		time.October: 4, time.November: 4, time.December: 4,
	}
	for month, q := range want {
		got := snapshot.Quarter(time.Date(2026, month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, q, got, "month %s", month)
	}
}

func TestNewMeta(t *testing.T) {
	now := time.Date(2026, time.August, 29, 12, 30, 0, 0, time.UTC)
	meta := snapshot.NewMeta(now, "sheet-abc")

	assert.Equal(t, "2026-08-29T12:30:00Z", meta.GeneratedAt)
	assert.Equal(t, "sheet-abc", meta.SourceSheetID)
	assert.Equal(t, "2026Q3", meta.ReportingQuarter)
	assert.Equal(t, 2026, meta.ReportingYear)
	assert.Equal(t, 3, meta.ReportingQuarterNumber)
	assert.Equal(t, "2.0", meta.SchemaVersion)

	assert.Regexp(t, regexp.MustCompile(`^\d{4}Q[1-4]$`), meta.ReportingQuarter)
}

func TestSnapshotJSONShape(t *testing.T) {
	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	snap := &snapshot.Snapshot{
		Meta: snapshot.NewMeta(now, "sheet-abc"),
		Sheets: map[string]sheetcsv.Table{
			"startups": {{"name": "Acme"}},
			"empty":    make(sheetcsv.Table, 0),
		},
		Config: snapshot.Config{SchemaVersion: snapshot.ConfigSchemaVersion},
	}

	b, err := json.Marshal(snap)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Contains(t, doc, "meta")
	assert.Contains(t, doc, "sheets")
	assert.Contains(t, doc, "config")

	// Failed sources must serialize as [], never null.
	var sheetsDoc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc["sheets"], &sheetsDoc))
	assert.JSONEq(t, `[]`, string(sheetsDoc["empty"]))

	var cfg map[string]string
	require.NoError(t, json.Unmarshal(doc["config"], &cfg))
	assert.Equal(t, "1.0", cfg["schema_version"])
}
