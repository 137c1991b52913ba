// =============================================================================
// aqtools - Statistics Reports
// =============================================================================
//
// This module writes computed statistics as two-column CSV files and as a
// workbook with one sheet per report.
//
// =============================================================================

package txstats

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the statistics workbook.
const (
	SummarySheet     = "Summary"
	FrequencySheet   = "Item Frequencies"
	LengthSheet      = "Length Distribution"
	defaultSheetName = "Sheet1"
)

// WriteFrequencies writes the item frequencies as an item,frequency CSV.
func WriteFrequencies(path string, s *Stats) error {
	records := make([][]string, 0, len(s.ItemFrequencies)+1)
	records = append(records, []string{"item", "frequency"})
	for _, ic := range s.ItemFrequencies {
		records = append(records, []string{ic.Item, strconv.Itoa(ic.Count)})
	}
	return writeCSV(path, records)
}

// WriteLengthDistribution writes the transaction length distribution as a
// length,count CSV.
func WriteLengthDistribution(path string, s *Stats) error {
	records := make([][]string, 0, len(s.LengthCounts)+1)
	records = append(records, []string{"length", "count"})
	for _, lc := range s.LengthCounts {
		records = append(records, []string{strconv.Itoa(lc.Length), strconv.Itoa(lc.Count)})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// WriteWorkbook writes the summary, the item frequencies and the length
// distribution to one XLSX workbook, one sheet each.
func WriteWorkbook(path string, s *Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheetName, SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	summary := [][]interface{}{{"Statistic", "Value"}}
	for _, kv := range s.Summary() {
		summary = append(summary, []interface{}{kv[0], kv[1]})
	}
	if err := setRows(f, SummarySheet, summary); err != nil {
		return err
	}

	frequencies := [][]interface{}{{"Item", "Frequency"}}
	for _, ic := range s.ItemFrequencies {
		frequencies = append(frequencies, []interface{}{ic.Item, ic.Count})
	}
	if _, err := f.NewSheet(FrequencySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := setRows(f, FrequencySheet, frequencies); err != nil {
		return err
	}

	lengths := [][]interface{}{{"Length", "Count"}}
	for _, lc := range s.LengthCounts {
		lengths = append(lengths, []interface{}{lc.Length, lc.Count})
	}
	if _, err := f.NewSheet(LengthSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := setRows(f, LengthSheet, lengths); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
