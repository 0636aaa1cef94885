package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/spectra-cube/internal/export"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
  workers: 2
  metricsTextfile: spectra.prom
input: obs.spectra
query:
  beam: "1"
  rebinDT: 1.5s
  edgeChannels: [1, 2]
  products: [I, v]
exports:
  - format: CSV
    path: out.csv
  - format: sqlite
    path: results.db
  - format: archive
    path: out.msgpack.zst
    level: fastest
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, c.Settings.Level())
	assert.Equal(t, 2, c.Settings.Workers)
	assert.Equal(t, "obs.spectra", c.Input)
	assert.Equal(t, []string{"I", "v"}, c.Query.Products)
	require.NotNil(t, c.Query.Beam)
	assert.EqualValues(t, 1, *c.Query.Beam)
	require.NotNil(t, c.Query.RebinDT)
	assert.EqualValues(t, 1500*time.Millisecond, *c.Query.RebinDT)
	require.Len(t, c.Exports, 3)
	assert.Equal(t, export.FormatCSV, c.Exports[0].format)
	assert.Equal(t, zstd.SpeedDefault, c.Exports[0].level)
	assert.Equal(t, export.FormatSqlite, c.Exports[1].format)
	assert.Equal(t, export.FormatArchive, c.Exports[2].format)
	assert.Equal(t, zstd.SpeedFastest, c.Exports[2].level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":  "input: a\nfoo: 1\nexports: [{format: csv, path: a.csv}]",
		"no input":       "exports: [{format: csv, path: a.csv}]",
		"log level":      "settings: {logLevel: loud}\ninput: a\nexports: [{format: csv, path: a.csv}]",
		"workers":        "settings: {workers: -1}\ninput: a\nexports: [{format: csv, path: a.csv}]",
		"product":        "input: a\nquery: {products: [W]}\nexports: [{format: csv, path: a.csv}]",
		"no exports":     "input: a",
		"format":         "input: a\nexports: [{format: parquet, path: a.pq}]",
		"no path":        "input: a\nexports: [{format: csv}]",
		"duplicate path": "input: a\nexports: [{format: csv, path: a}, {format: archive, path: a}]",
		"beam":           "input: a\nquery: {beam: west}\nexports: [{format: csv, path: a.csv}]",
		"csv level":      "input: a\nexports: [{format: csv, path: a.csv, level: best}]",
		"unknown level":  "input: a\nexports: [{format: archive, path: a.zst, level: extreme}]",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
