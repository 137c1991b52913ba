package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aqmining/aqtools/internal/condition"
	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/encoder"
	"github.com/aqmining/aqtools/internal/preprocess"
	"github.com/aqmining/aqtools/internal/txstats"
)

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunEncodesTable(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "TID,c1,c2,c3\nA,5,0,9\nB,0,0,0\nC,1,4,2\n")
	output := filepath.Join(dir, "out", "tx.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0o755))

	result := New(Job{InputPath: input, Operator: ">", Threshold: 3, OutputPath: output}, nil, nil).Run()
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, output, result.OutputFile)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "c1\tc3\nc2\n", string(data))

	assert.Equal(t, 3, result.Stats.RowsProcessed)
	assert.Equal(t, 3, result.Stats.ColumnsProcessed)
	assert.Equal(t, 2, result.Stats.TransactionsWritten)
	assert.Equal(t, 1, result.Stats.RowsSkipped)
	assert.Equal(t, 3, result.Stats.DistinctItems)
	assert.True(t, result.Validation.IsValid)
	assert.Nil(t, result.Database)
}

func TestRunMissingCellFailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "TID,c1,c2\nA,5,NaN\n")
	output := filepath.Join(dir, "tx.txt")

	result := New(Job{InputPath: input, Operator: ">", Threshold: 3, OutputPath: output}, nil, nil).Run()
	assert.False(t, result.Success)

	var cmpErr *encoder.ComparisonError
	require.ErrorAs(t, result.Error, &cmpErr)
	assert.Equal(t, "c2", cmpErr.Column)
	// The missing cell and the column without any number.
	assert.Equal(t, 2, result.Stats.ValidationWarnings)
	assert.NoFileExists(t, output)
}

func TestRunPreprocessFillsMissing(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, ",c1,,c3\nA,5,NaN,9\nB,NaN,7,NaN\n")
	output := filepath.Join(dir, "tx.txt")
	statsPath := filepath.Join(dir, "stats", "tx.xlsx")

	cfg := config.Default()
	cfg.Preprocess.Steps = []config.Step{
		{Type: "fill_missing", Value: 0},
		{Type: "rename_unnamed", Format: "Point{n}"},
		{Type: "rename_id", Name: "TID"},
	}

	result := New(Job{
		InputPath:  input,
		Operator:   ">=",
		Threshold:  5,
		OutputPath: output,
		StatsXLSX:  statsPath,
	}, cfg, nil).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, 3, result.Stats.StepsApplied)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "c1\tc3\nPoint3\n", string(data))

	require.NotNil(t, result.Database)
	assert.Equal(t, 2, result.Database.DatabaseSize)

	f, err := excelize.OpenFile(statsPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), txstats.FrequencySheet)
}

func TestRunInvalidConditionLeavesOutputUntouched(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "TID,c1\nA,5\n")
	output := filepath.Join(dir, "tx.txt")
	require.NoError(t, os.WriteFile(output, []byte("previous\n"), 0o644))

	result := New(Job{InputPath: input, Operator: "~=", Threshold: 3, OutputPath: output}, nil, nil).Run()

	var condErr *condition.InvalidConditionError
	require.ErrorAs(t, result.Error, &condErr)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
}

func TestRunStrictValidationStopsBeforeEncoding(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "TID,c1,c2\nA,5,\n")
	output := filepath.Join(dir, "tx.txt")

	cfg := config.Default()
	cfg.Validation.MissingIsError = true

	result := New(Job{InputPath: input, Operator: ">", Threshold: 3, OutputPath: output}, cfg, nil).Run()
	assert.ErrorContains(t, result.Error, "validation failed")
	assert.NoFileExists(t, output)
}

func TestRunPreprocessErrorIsStepError(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "TID,c1\nA,5\n")

	cfg := config.Default()
	cfg.Preprocess.Steps = []config.Step{{Type: "smooth"}}

	result := New(Job{InputPath: input, Operator: ">", Threshold: 3, OutputPath: filepath.Join(dir, "tx.txt")}, cfg, nil).Run()

	var stepErr *preprocess.StepError
	require.ErrorAs(t, result.Error, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	result := New(Job{
		InputPath:  filepath.Join(dir, "absent.csv"),
		Operator:   ">",
		OutputPath: filepath.Join(dir, "tx.txt"),
	}, nil, nil).Run()

	assert.ErrorIs(t, result.Error, os.ErrNotExist)
	assert.False(t, result.Success)
}

func TestLoadTableDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"TID", "s1"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"r1", 4}))
	book := filepath.Join(dir, "input.xlsx")
	require.NoError(t, f.SaveAs(book))
	require.NoError(t, f.Close())

	tbl, err := LoadTable(book, "", config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, tbl.Columns)
	assert.Equal(t, 4.0, tbl.Rows[0].Cells[0].Value)
}
