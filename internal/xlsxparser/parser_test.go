package xlsxparser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aqmining/aqtools/internal/config"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseFirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Readings": {
			{"TimeStamp", "s1", "s2", "s3"},
			{"2021-01-01 00:00:00", 12, 7.5, "NaN"},
			{"2021-01-01 01:00:00", 15},
		},
	})

	tbl, err := Parse(path, "", config.Default().CSV)
	require.NoError(t, err)

	assert.Equal(t, "TimeStamp", tbl.IDHeader)
	assert.Equal(t, []string{"s1", "s2", "s3"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, 12.0, tbl.Rows[0].Cells[0].Value)
	assert.Equal(t, 7.5, tbl.Rows[0].Cells[1].Value)
	assert.True(t, tbl.Rows[0].Cells[2].IsMissing())

	assert.Equal(t, 15.0, tbl.Rows[1].Cells[0].Value)
	assert.True(t, tbl.Rows[1].Cells[1].IsMissing())
	assert.True(t, tbl.Rows[1].Cells[2].IsMissing())
	assert.Equal(t, 3, tbl.Rows[1].Line)
}

func TestParseNamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Sheet1": {{"TID", "a"}, {"r1", 1}},
		"Other":  {{"TID", "b"}, {"r1", 2}},
	})

	tbl, err := Parse(path, "Other", config.Default().CSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, tbl.Columns)
	assert.Equal(t, 2.0, tbl.Rows[0].Cells[0].Value)

	_, err = Parse(path, "Absent", config.Default().CSV)
	assert.Error(t, err)

	sheets, err := Sheets(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Sheet1", "Other"}, sheets)
}

func TestParseRejectsBadHeaders(t *testing.T) {
	dup := writeWorkbook(t, map[string][][]interface{}{
		"Sheet1": {{"TID", "a", "a"}, {"r1", 1, 2}},
	})
	_, err := Parse(dup, "", config.Default().CSV)
	assert.Error(t, err)

	narrow := writeWorkbook(t, map[string][][]interface{}{
		"Sheet1": {{"TID"}, {"r1"}},
	})
	_, err = Parse(narrow, "", config.Default().CSV)
	assert.Error(t, err)
}

func TestParseMissingWorkbook(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.xlsx"), "", config.Default().CSV)
	assert.Error(t, err)
}

func TestParseDateIdentifiers(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"TimeStamp", "s1"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", time.Date(2021, 1, 1, 1, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 12))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", 7))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 44197.5))

	path := filepath.Join(t.TempDir(), "dates.xlsx")
	require.NoError(t, f.SaveAs(path))

	tbl, err := Parse(path, "", config.Default().CSV)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, "2021-01-01 01:00:00", tbl.Rows[0].ID)
	assert.Equal(t, 12.0, tbl.Rows[0].Cells[0].Value)

	// Plain numbers stay as they are, in both columns.
	assert.Equal(t, "7", tbl.Rows[1].ID)
	assert.Equal(t, 44197.5, tbl.Rows[1].Cells[0].Value)
}

func TestParseSkipsHiddenSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Notes"))
	require.NoError(t, f.SetSheetRow("Notes", "A1", &[]interface{}{"TID", "hidden"}))
	idx, err := f.NewSheet("Readings")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Readings", "A1", &[]interface{}{"TID", "s1"}))
	require.NoError(t, f.SetSheetRow("Readings", "A2", &[]interface{}{"r1", 3}))
	f.SetActiveSheet(idx)
	require.NoError(t, f.SetSheetVisible("Notes", false))

	path := filepath.Join(t.TempDir(), "hidden.xlsx")
	require.NoError(t, f.SaveAs(path))

	sheets, err := Sheets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Readings"}, sheets)

	tbl, err := Parse(path, "", config.Default().CSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, tbl.Columns)
	assert.Equal(t, path+"#Readings", tbl.Source)

	// A hidden sheet can still be read by name.
	tbl, err = Parse(path, "Notes", config.Default().CSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden"}, tbl.Columns)
}
