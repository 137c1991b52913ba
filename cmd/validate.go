// =============================================================================
// aqtools - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   aqtools validate <input> [--sheet] [--log]
//
// Reports missing and non-numeric item cells, empty columns and empty rows.
// Exits with an error when the table has error-level findings.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqmining/aqtools/internal/converter"
	"github.com/aqmining/aqtools/internal/validation"
	"github.com/aqmining/aqtools/pkg/utils"
)

var (
	validateSheet   string
	validateLogFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate <input>",
	Short: "Check a table before encoding it",
	Long: `Check a table before encoding it.

Non-numeric item cells and tables without item columns are errors. Missing
cells, empty columns and empty rows are warnings, or errors when
validation.missing_is_error is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(
		&validateSheet,
		"sheet",
		"",
		"Workbook sheet to read (default is the configured sheet, then the first one)",
	)

	validateCmd.Flags().StringVar(
		&validateLogFile,
		"log",
		"",
		"Also write the findings to this file",
	)
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	input := args[0]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "validate",
		StartTime: time.Now(),
		Inputs:    []string{input},
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Err = err
		writeSummary(cfg, logger, summary)
	}()

	sheet := validateSheet
	if sheet == "" {
		sheet = cfg.XLSX.Sheet
	}

	table, err := converter.LoadTable(input, sheet, cfg)
	if err != nil {
		return fmt.Errorf("failed to load table: %w", err)
	}

	opts := validation.DefaultOptions()
	opts.MissingIsError = cfg.Validation.MissingIsError
	report := validation.ValidateTable(table, opts)

	summary.AddCounter("Cells validated", report.CellsValidated)
	summary.AddCounter("Missing cells", report.MissingCells)
	summary.AddCounter("Text cells", report.TextCells)
	summary.AddCounter("Errors", report.ErrorCount)
	summary.AddCounter("Warnings", report.WarningCount)

	if validateLogFile != "" {
		if err := utils.EnsureParentDir(validateLogFile); err != nil {
			return err
		}
		if err := validation.WriteErrorLog(report.Errors, validateLogFile); err != nil {
			return err
		}
		summary.Outputs = append(summary.Outputs, validateLogFile)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, validation.FormatErrors(report.Errors))
	if len(report.Errors) == 0 {
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "\nCells validated: %d (missing %d, non-numeric %d)\n",
		report.CellsValidated, report.MissingCells, report.TextCells)
	fmt.Fprintf(out, "Errors: %d, warnings: %d\n", report.ErrorCount, report.WarningCount)

	if !report.IsValid {
		return fmt.Errorf("validation failed with %d error(s)", report.ErrorCount)
	}
	return nil
}
