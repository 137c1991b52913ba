// =============================================================================
// aqtools - CSV Parser Module
// =============================================================================
//
// This module reads wide sensor tables from CSV files. The first column is
// the row identifier (a timestamp or "TID"); every other column is an item,
// typically one monitoring station.
//
// FEATURES:
//   - Delimiter aliases (comma, tab, pipe, semicolon)
//   - Configurable missing-value markers
//   - Empty header labels replaced by Column_<n>
//   - Duplicate item labels rejected
//   - Short rows padded with missing cells
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/types"
)

// ErrEmptyFile is returned for a file without a header row.
var ErrEmptyFile = errors.New("CSV file is empty")

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the table it contains.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The CSV settings from the configuration.
//
// RETURNS:
//   - The parsed table.
//   - An error if the file cannot be read or is malformed.
func Parse(filePath string, settings config.CSVSettings) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, filePath, settings)
}

// ParseReader reads a table from r. source is recorded on the table and used
// in error messages.
func ParseReader(r io.Reader, source string, settings config.CSVSettings) (*types.Table, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header = stripBOM(header)
	if len(header) < 2 {
		return nil, fmt.Errorf("header needs an identifier column and at least one item column, got %d column(s)", len(header))
	}

	labels, err := cleanHeaders(header)
	if err != nil {
		return nil, err
	}

	table := &types.Table{
		IDHeader: labels[0],
		Columns:  labels[1:],
		Source:   source,
	}

	classify := NewClassifier(settings.MissingMarkers)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := csvReader.FieldPos(0)

		// Skip empty rows.
		if isRowEmpty(record) {
			continue
		}

		row, err := buildRow(record, table.Columns, classify, line)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = Delimiter(settings.Delimiter)

	// Row length is checked against the header in buildRow.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// Delimiter resolves a configured delimiter, including its aliases.
func Delimiter(setting string) rune {
	switch setting {
	case "\\t", "\t", "tab", "TAB":
		return '\t'
	case "|", "pipe", "PIPE":
		return '|'
	case ";", "semicolon":
		return ';'
	default:
		if r, _ := utf8.DecodeRuneInString(setting); r != utf8.RuneError {
			return r
		}
		return ','
	}
}

// cleanHeaders trims labels, names empty ones Column_<n> (1-based) and
// rejects duplicates.
func cleanHeaders(headers []string) ([]string, error) {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		if prev, dup := seen[header]; dup {
			return nil, fmt.Errorf("duplicate column label %q in columns %d and %d", header, prev+1, i+1)
		}
		seen[header] = i
		cleaned[i] = header
	}

	return cleaned, nil
}

// buildRow converts a record into a row with one cell per item column.
func buildRow(record []string, columns []string, classify Classifier, line int) (types.Row, error) {
	if len(record) > len(columns)+1 {
		return types.Row{}, fmt.Errorf("line %d: %d fields, header has %d", line, len(record), len(columns)+1)
	}

	row := types.Row{
		ID:    strings.TrimSpace(record[0]),
		Cells: make([]types.Cell, len(columns)),
		Line:  line,
	}

	for i := range columns {
		if i+1 < len(record) {
			row.Cells[i] = classify(record[i+1])
		} else {
			// Column is missing in this row.
			row.Cells[i] = types.Missing("")
		}
	}

	return row, nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// stripBOM removes a UTF-8 byte order mark from the first header label.
func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	return header
}

// =============================================================================
// CELL CLASSIFICATION
// =============================================================================

// Classifier turns raw cell text into a typed cell.
type Classifier func(raw string) types.Cell

// NewClassifier returns a Classifier that treats the given markers as
// missing. Markers are matched after trimming whitespace.
func NewClassifier(missingMarkers []string) Classifier {
	markers := make(map[string]struct{}, len(missingMarkers))
	for _, m := range missingMarkers {
		markers[strings.TrimSpace(m)] = struct{}{}
	}

	return func(raw string) types.Cell {
		value := strings.TrimSpace(raw)
		if _, ok := markers[value]; ok {
			return types.Missing(value)
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return types.Text(value)
		}
		// ParseFloat accepts "NaN"; a NaN never compares, so keep it missing.
		if f != f {
			return types.Missing(value)
		}
		return types.Cell{Raw: value, Value: f, Kind: types.CellNumeric}
	}
}
