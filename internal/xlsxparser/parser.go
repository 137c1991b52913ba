// =============================================================================
// aqtools - XLSX Table Parser
// =============================================================================
//
// This module reads wide sensor tables from XLSX workbooks. The layout is the
// same as the CSV input:
//
//   | TimeStamp           | Station A | Station B | Station C |
//   |---------------------|-----------|-----------|-----------|
//   | 2021-01-01 00:00:00 | 12        | 7         | NaN       |
//   | 2021-01-01 01:00:00 | 15        |           | 3         |
//
// Cells are classified with the same missing markers as the CSV parser.
// Trailing empty cells, which excelize drops, are read as missing.
// Identifier cells formatted as dates are rendered as timestamps instead of
// Excel serial numbers.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/csvparser"
	"github.com/aqmining/aqtools/internal/types"
)

// TimestampLayout renders date-formatted identifier cells.
const TimestampLayout = "2006-01-02 15:04:05"

// Parse reads a table from a sheet of an XLSX workbook.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - sheet: The sheet to read. Empty reads the first visible sheet.
//   - settings: The CSV settings; only the missing markers are used.
//
// RETURNS:
//   - The parsed table.
//   - An error if the workbook or sheet cannot be read.
func Parse(filePath, sheet string, settings config.CSVSettings) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		visible := visibleSheets(f)
		if len(visible) == 0 {
			return nil, fmt.Errorf("workbook has no visible sheets")
		}
		sheet = visible[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, filePath)
	}

	// Item cells are read raw so formatting never changes a reading.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	ids := &identifierReader{f: f, sheet: sheet}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		ids.date1904 = *props.Date1904
	}

	return buildTable(rows, filePath+"#"+sheet, csvparser.NewClassifier(settings.MissingMarkers), ids.value)
}

// Sheets lists the visible sheets of a workbook in order.
func Sheets(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return visibleSheets(f), nil
}

func visibleSheets(f *excelize.File) []string {
	var sheets []string
	for _, name := range f.GetSheetList() {
		visible, err := f.GetSheetVisible(name)
		if err != nil || !visible {
			continue
		}
		sheets = append(sheets, name)
	}
	return sheets
}

// =============================================================================
// IDENTIFIER CELLS
// =============================================================================

// identifierReader renders identifier cells. A date-formatted cell holds an
// Excel serial number and is rendered with TimestampLayout; any other cell
// keeps its raw value.
type identifierReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
}

func (r *identifierReader) value(rowNum int, raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}

	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return raw
	}
	styleID, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil || styleID == 0 {
		return raw
	}
	style, err := r.f.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return raw
	}

	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return raw
	}
	return t.Round(time.Second).Format(TimestampLayout)
}

// isDateFormat reports whether a cell style displays dates or times.
// Built-in formats 14-22 and 45-47 are the date and time formats.
func isDateFormat(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		format := strings.ToLower(*style.CustomNumFmt)
		return strings.ContainsAny(format, "ydh") && !strings.Contains(format, "0.0")
	}
	n := style.NumFmt
	return (n >= 14 && n <= 22) || (n >= 45 && n <= 47)
}

// buildTable converts sheet rows into a table. The first non-empty row is
// the header. identifier renders the first cell of a data row given its
// 1-based sheet row number.
func buildTable(
	rows [][]string,
	source string,
	classify csvparser.Classifier,
	identifier func(rowNum int, raw string) string,
) (*types.Table, error) {
	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, fmt.Errorf("sheet %s is empty", source)
	}

	header := rows[start]
	if len(header) < 2 {
		return nil, fmt.Errorf("header needs an identifier column and at least one item column, got %d column(s)", len(header))
	}

	labels := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, label := range header {
		label = strings.TrimSpace(label)
		if label == "" {
			label = fmt.Sprintf("Column_%d", i+1)
		}
		if seen[label] {
			return nil, fmt.Errorf("duplicate column label %q", label)
		}
		seen[label] = true
		labels[i] = label
	}

	table := &types.Table{
		IDHeader: labels[0],
		Columns:  labels[1:],
		Source:   source,
	}

	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}
		if len(row) > len(labels) {
			return nil, fmt.Errorf("row %d: %d cells, header has %d", i+1, len(row), len(labels))
		}

		r := types.Row{
			ID:    identifier(i+1, strings.TrimSpace(row[0])),
			Cells: make([]types.Cell, len(table.Columns)),
			Line:  i + 1,
		}
		for j := range table.Columns {
			if j+1 < len(row) {
				r.Cells[j] = classify(row[j+1])
			} else {
				r.Cells[j] = types.Missing("")
			}
		}
		table.Rows = append(table.Rows, r)
	}

	return table, nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
