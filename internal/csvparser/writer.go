// =============================================================================
// aqtools - CSV Table Writer
// =============================================================================
//
// This module renders tables back to CSV with the configured delimiter and
// missing marker.
//
// =============================================================================

package csvparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/types"
)

// Write renders table to filePath, truncating any existing file.
func Write(filePath string, table *types.Table, settings config.CSVSettings) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteTo(file, table, settings); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// WriteTo renders table as CSV. Missing cells are written as
// settings.MissingOutput and numbers in their shortest form.
func WriteTo(w io.Writer, table *types.Table, settings config.CSVSettings) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter(settings.Delimiter)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, table.IDHeader)
	header = append(header, table.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range table.Rows {
		record[0] = row.ID
		for i := range table.Columns {
			record[i+1] = FormatCell(row.Cells[i], settings.MissingOutput)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %q: %w", row.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// FormatCell renders a cell for output.
func FormatCell(c types.Cell, missing string) string {
	switch c.Kind {
	case types.CellNumeric:
		return strconv.FormatFloat(c.Value, 'f', -1, 64)
	case types.CellMissing:
		return missing
	default:
		return c.Raw
	}
}
