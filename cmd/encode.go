// =============================================================================
// aqtools - Encode Command
// =============================================================================
//
// This file defines the 'encode' command, which converts a dense table into
// a transactional file.
//
// COMMAND USAGE:
//   aqtools encode <input> <operator> <threshold> <output> [flags]
//
// FLAGS:
//   --sheet       Workbook sheet to read when <input> is an .xlsx file
//   --stats-xlsx  Also write a statistics workbook of the output
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqmining/aqtools/internal/converter"
	"github.com/aqmining/aqtools/pkg/utils"
)

var (
	encodeSheet     string
	encodeStatsXLSX string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <input> <operator> <threshold> <output>",
	Short: "Encode a table into a transactional file",
	Long: `Encode a table into a transactional file.

Each row becomes one line listing, tab-separated and in column order, the
labels of the item columns whose value satisfies "<value> <operator>
<threshold>". Rows without any such column produce no line. The first
column is the row identifier and is never an item.

Supported operators: >, <, >=, <=, ==, !=

A missing or non-numeric item cell fails the run and no output is written.
Use "--" before a negative threshold:
  aqtools encode readings.csv ">" -- -5 out.txt`,
	Args: cobra.ExactArgs(4),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringVar(
		&encodeSheet,
		"sheet",
		"",
		"Workbook sheet to read (default is the configured sheet, then the first one)",
	)

	encodeCmd.Flags().StringVar(
		&encodeStatsXLSX,
		"stats-xlsx",
		"",
		"Write a statistics workbook of the transactional file to this path",
	)
}

func runEncode(cmd *cobra.Command, args []string) error {
	input, operator, output := args[0], args[1], args[3]

	threshold, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", args[2], err)
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "encode",
		StartTime: time.Now(),
		Inputs:    []string{input},
	}

	result := converter.New(converter.Job{
		InputPath:  input,
		Sheet:      encodeSheet,
		Operator:   operator,
		Threshold:  threshold,
		OutputPath: output,
		StatsXLSX:  encodeStatsXLSX,
	}, cfg, logger).Run()

	summary.EndTime = time.Now()
	summary.Err = result.Error
	summary.AddCounter("Rows", result.Stats.RowsProcessed)
	summary.AddCounter("Item columns", result.Stats.ColumnsProcessed)
	summary.AddCounter("Steps applied", result.Stats.StepsApplied)
	summary.AddCounter("Transactions", result.Stats.TransactionsWritten)
	summary.AddCounter("Rows skipped", result.Stats.RowsSkipped)
	summary.AddCounter("Distinct items", result.Stats.DistinctItems)
	summary.AddCounter("Validation errors", result.Stats.ValidationErrors)
	summary.AddCounter("Validation warnings", result.Stats.ValidationWarnings)
	if result.Success {
		summary.Outputs = append(summary.Outputs, result.OutputFile)
		if result.Database != nil {
			summary.Outputs = append(summary.Outputs, encodeStatsXLSX)
		}
	}
	if result.Validation != nil && result.Validation.WarningCount > 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("%d validation warning(s)", result.Validation.WarningCount))
	}
	writeSummary(cfg, logger, summary)

	if result.Error != nil {
		return result.Error
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d transaction(s) to %s\n", result.Stats.TransactionsWritten, result.OutputFile)
	fmt.Fprintf(out, "Rows without items: %d\n", result.Stats.RowsSkipped)
	fmt.Fprintf(out, "Distinct items:     %d\n", result.Stats.DistinctItems)
	fmt.Fprintf(out, "Time elapsed:       %s\n", result.Stats.ProcessingTime)
	if result.Database != nil {
		fmt.Fprintf(out, "Statistics:         %s\n", encodeStatsXLSX)
	}

	return nil
}
