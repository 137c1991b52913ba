package utils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{command}_summary_{date}_{uuid}.txt", map[string]string{"command": "encode"})

	assert.True(t, strings.HasPrefix(name, "encode_summary_"))
	assert.True(t, strings.HasSuffix(name, ".txt"))
	assert.NotContains(t, name, "{")
	// command + summary + date + 36-char uuid
	assert.Len(t, name, len("encode_summary_20240115_")+36+len(".txt"))

	other := GenerateOutputFileName("{command}_summary_{date}_{uuid}.txt", map[string]string{"command": "encode"})
	assert.NotEqual(t, name, other)
}

func TestIsXLSX(t *testing.T) {
	assert.True(t, IsXLSX("data/readings.XLSX"))
	assert.True(t, IsXLSX("book.xlsm"))
	assert.False(t, IsXLSX("readings.csv"))
	assert.False(t, IsXLSX("xlsx"))
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.txt")
	require.NoError(t, EnsureParentDir(path))
	assert.True(t, FileExists(filepath.Dir(path)))
	assert.False(t, FileExists(path))
	assert.NoError(t, EnsureDir(""))
}

func TestWriteSummaryLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "summaries")
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	summary := RunSummary{
		Command:   "encode",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
		Inputs:    []string{"in.csv"},
		Outputs:   []string{"out.txt"},
		Warnings:  []string{"3 missing cells"},
	}
	summary.AddCounter("Rows", 10)
	summary.AddCounter("Transactions", 7)

	path, err := WriteSummaryLog(summary, dir, "{command}_summary_{uuid}.txt")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "encode_summary_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "aqtools encode - Run Summary")
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "Status:         success")
	assert.Contains(t, text, "Input:  in.csv")
	assert.Contains(t, text, "Transactions:")
	assert.Contains(t, text, "3 missing cells")

	summary.Err = errors.New("boom")
	path, err = WriteSummaryLog(summary, dir, "{command}_{uuid}.txt")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Status:         failed")
	assert.Contains(t, string(data), "boom")
}
