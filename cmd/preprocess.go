// =============================================================================
// aqtools - Preprocess Command
// =============================================================================
//
// COMMAND USAGE:
//   aqtools preprocess <input> <output> [--sheet]
//
// The steps come from the preprocess.steps section of the configuration and
// are applied in order. The cleaned table is written as CSV.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/converter"
	"github.com/aqmining/aqtools/internal/csvparser"
	"github.com/aqmining/aqtools/internal/preprocess"
	"github.com/aqmining/aqtools/pkg/utils"
)

var preprocessSheet string

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <input> <output>",
	Short: "Apply the configured cleaning steps to a table",
	Long: `Apply the preprocess.steps of the configuration to a table and write the
result as CSV.

Example configuration:
  preprocess:
    steps:
      - type: drop_columns_where
        operator: "<"
        threshold: 0
      - type: filter_sparse
        value: 0
        max_fraction: 0.5
      - type: rename_unnamed
        format: "Point{n}"`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == args[1] {
			return errors.New("input and output must differ")
		}
		return nil
	},
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringVar(
		&preprocessSheet,
		"sheet",
		"",
		"Workbook sheet to read (default is the configured sheet, then the first one)",
	)
}

func runPreprocess(cmd *cobra.Command, args []string) (err error) {
	input, output := args[0], args[1]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "preprocess",
		StartTime: time.Now(),
		Inputs:    []string{input},
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Err = err
		writeSummary(cfg, logger, summary)
	}()

	sheet := preprocessSheet
	if sheet == "" {
		sheet = cfg.XLSX.Sheet
	}

	table, err := converter.LoadTable(input, sheet, cfg)
	if err != nil {
		return fmt.Errorf("failed to load table: %w", err)
	}
	summary.AddCounter("Rows in", table.NumRows())
	summary.AddCounter("Columns in", table.NumColumns())

	pipeline := preprocess.NewPipeline(cfg.Preprocess.Steps, logger)
	if pipeline.Len() == 0 {
		logger.Warn("no preprocess steps configured, table is copied unchanged")
	}

	cleaned, reports, err := pipeline.Run(table)
	if err != nil {
		return err
	}

	if err := utils.EnsureParentDir(output); err != nil {
		return err
	}
	if err := csvparser.Write(output, cleaned, cfg.CSV); err != nil {
		return err
	}

	summary.Outputs = append(summary.Outputs, output)
	summary.AddCounter("Steps applied", len(reports))
	summary.AddCounter("Rows out", cleaned.NumRows())
	summary.AddCounter("Columns out", cleaned.NumColumns())

	logger.Info("wrote preprocessed table",
		zap.String("output", output),
		zap.Int("rows", cleaned.NumRows()),
		zap.Int("columns", cleaned.NumColumns()),
	)

	out := cmd.OutOrStdout()
	for i, r := range reports {
		fmt.Fprintf(out, "%2d. %-20s rows %d -> %d, columns %d -> %d, cells changed %d\n",
			i+1, r.Type, r.RowsBefore, r.RowsAfter, r.ColumnsBefore, r.ColumnsAfter, r.CellsChanged)
	}
	fmt.Fprintf(out, "Wrote %d row(s) x %d column(s) to %s\n", cleaned.NumRows(), cleaned.NumColumns(), output)

	return nil
}
