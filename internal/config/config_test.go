package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ",", cfg.CSV.Delimiter)
	assert.Equal(t, "NaN", cfg.CSV.MissingOutput)
	assert.Equal(t, "\t", cfg.Transactional.Separator)
	assert.Equal(t, []float64{-1000, 9999}, cfg.Database.Sentinels)
	assert.Equal(t, "pm25", cfg.Database.Parameter)
}

func TestLoadMissingRequiredFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
csv:
  delimiter: tab
  missing_markers: ["-", ""]
database:
  driver: sqlite
  dsn: ":memory:"
  table: readings
  parameter: no2
preprocess:
  steps:
    - type: Fill_Missing
      value: 0
    - type: rename_id
    - type: filter_sparse
      value: 0
      max_fraction: 0.5
impute:
  zero_as_missing: true
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "tab", cfg.CSV.Delimiter)
	assert.Equal(t, []string{"-", ""}, cfg.CSV.MissingMarkers)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "readings", cfg.Database.Table)
	assert.Equal(t, "no2", cfg.Database.Parameter)
	assert.Equal(t, "sname", cfg.Database.StationColumn)
	require.Len(t, cfg.Preprocess.Steps, 3)
	assert.Equal(t, "fill_missing", cfg.Preprocess.Steps[0].Type)
	assert.Equal(t, "TID", cfg.Preprocess.Steps[1].Name)
	assert.Equal(t, 0.5, cfg.Preprocess.Steps[2].MaxFraction)
	assert.True(t, cfg.Impute.ZeroAsMissing)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "log_level: loud\n"},
		{"driver", "database:\n  driver: oracle\n"},
		{"table injection", "database:\n  table: \"data; DROP TABLE data\"\n"},
		{"step without type", "preprocess:\n  steps:\n    - value: 1\n"},
		{"sparse fraction", "preprocess:\n  steps:\n    - type: filter_sparse\n      max_fraction: 2\n"},
		{"yaml syntax", "log_level: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), true)
			assert.Error(t, err)
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("pm25"))
	assert.True(t, ValidIdentifier("_station"))
	assert.False(t, ValidIdentifier("1abc"))
	assert.False(t, ValidIdentifier("a-b"))
	assert.False(t, ValidIdentifier(""))
}
