package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/mocksheets"
	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/snapshot"
)

func TestRunCommandEndToEnd(t *testing.T) {
	mock := mocksheets.New()
	mock.SetCSV("101", "name,city\nAcme,Tokyo\n")
	mock.FailWith("202", http.StatusBadGateway)
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sheetcache.yaml")
	outPath := filepath.Join(dir, "data.json")
	cfgYAML := `sheet_id: sheet-abc
base_url: ` + srv.URL + `
output_path: ` + outPath + `
max_retries: 0
sources:
  - key: startups
    name: Startups
    gid: "101"
  - key: investors
    name: Investors
    gid: "202"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", cfgPath})

	// One failed source degrades to an empty table; the run still succeeds.
	require.NoError(t, cmd.Execute())

	snap, err := snapshot.ReadFile(outPath)
	require.NoError(t, err)
	require.Len(t, snap.Sheets, 2)
	assert.Len(t, snap.Sheets["startups"], 1)
	require.NotNil(t, snap.Sheets["investors"])
	assert.Empty(t, snap.Sheets["investors"])
	assert.Equal(t, "sheet-abc", snap.Meta.SourceSheetID)
	assert.Equal(t, snapshot.MetaSchemaVersion, snap.Meta.SchemaVersion)
}

func TestRunCommandRejectsUnusableConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sheetcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output_path: x.json\n"), 0o644))

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", cfgPath})

	assert.Error(t, cmd.Execute())
}

func TestRunCommandFlagOverridesOutputPath(t *testing.T) {
	mock := mocksheets.New()
	mock.SetCSV("101", "name\nAcme\n")
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sheetcache.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`sheet_id: sheet-abc
base_url: `+srv.URL+`
sources:
  - key: startups
    gid: "101"
`), 0o644))

	outPath := filepath.Join(dir, "override", "data.json")
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", cfgPath, "--output-path", outPath})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(outPath)
	assert.NoError(t, err)
}
