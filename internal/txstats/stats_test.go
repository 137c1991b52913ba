package txstats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sample = "a\tb\tc\n\nb\tc\nc\n"

func TestRead(t *testing.T) {
	db, err := Read(strings.NewReader(sample+"\r\n  \n"), "\t")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"b", "c"}, {"c"}}, db.Transactions)

	_, err = Read(strings.NewReader(sample), "")
	assert.Error(t, err)
}

func TestReadCustomSeparator(t *testing.T) {
	db, err := Read(strings.NewReader("a, b,,c\n"), ",")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}}, db.Transactions)
}

func TestCompute(t *testing.T) {
	db, err := Read(strings.NewReader(sample), "\t")
	require.NoError(t, err)

	s, err := Compute(db)
	require.NoError(t, err)

	assert.Equal(t, 3, s.DatabaseSize)
	assert.Equal(t, 1, s.MinLength)
	assert.Equal(t, 3, s.MaxLength)
	assert.InDelta(t, 2.0, s.AverageLength, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.VarianceLength, 1e-9)
	assert.InDelta(t, 0.816496580927726, s.StdDevLength, 1e-9)
	assert.Equal(t, 3, s.DistinctItems)
	assert.Equal(t, 6, s.TotalItems)
	assert.InDelta(t, 6.0/9.0, s.Density, 1e-9)
	assert.InDelta(t, 3.0/9.0, s.Sparsity, 1e-9)

	assert.Equal(t, []ItemCount{{"c", 3}, {"b", 2}, {"a", 1}}, s.ItemFrequencies)
	assert.Equal(t, []LengthCount{{1, 1}, {2, 1}, {3, 1}}, s.LengthCounts)
	assert.Len(t, s.Summary(), 10)
}

func TestComputeTiesSortByLabel(t *testing.T) {
	s, err := Compute(&Database{Transactions: [][]string{{"z", "y"}, {"x", "x"}}})
	require.NoError(t, err)

	// Repeated items count once per transaction.
	assert.Equal(t, []ItemCount{{"x", 1}, {"y", 1}, {"z", 1}}, s.ItemFrequencies)
	assert.Equal(t, []LengthCount{{1, 1}, {2, 1}}, s.LengthCounts)
}

func TestComputeEmpty(t *testing.T) {
	_, err := Compute(&Database{})
	assert.ErrorIs(t, err, ErrEmptyDatabase)
}

func TestReports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tx.txt")
	require.NoError(t, os.WriteFile(input, []byte(sample), 0o644))

	db, err := ReadFile(input, "\t")
	require.NoError(t, err)
	assert.Equal(t, input, db.Source)

	s, err := Compute(db)
	require.NoError(t, err)

	freq := filepath.Join(dir, "freq.csv")
	require.NoError(t, WriteFrequencies(freq, s))
	data, err := os.ReadFile(freq)
	require.NoError(t, err)
	assert.Equal(t, "item,frequency\nc,3\nb,2\na,1\n", string(data))

	lengths := filepath.Join(dir, "len.csv")
	require.NoError(t, WriteLengthDistribution(lengths, s))
	data, err = os.ReadFile(lengths)
	require.NoError(t, err)
	assert.Equal(t, "length,count\n1,1\n2,1\n3,1\n", string(data))

	book := filepath.Join(dir, "stats.xlsx")
	require.NoError(t, WriteWorkbook(book, s))

	f, err := excelize.OpenFile(book)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, FrequencySheet, LengthSheet}, f.GetSheetList())
	value, err := f.GetCellValue(FrequencySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "c", value)
	value, err = f.GetCellValue(SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt"), "\t")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
