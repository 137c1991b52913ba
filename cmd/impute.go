// =============================================================================
// aqtools - Impute Command
// =============================================================================
//
// COMMAND USAGE:
//   aqtools impute <input> <output> [--zero-as-missing]
//
// Every column with missing cells is fitted with a line over the row index
// and its gaps are filled with the fitted values.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/converter"
	"github.com/aqmining/aqtools/internal/csvparser"
	"github.com/aqmining/aqtools/internal/impute"
	"github.com/aqmining/aqtools/pkg/utils"
)

var imputeZeroAsMissing bool

var imputeCmd = &cobra.Command{
	Use:   "impute <input> <output>",
	Short: "Fill missing values by linear regression",
	Long: `Fill the missing values of each column with a least-squares line fitted
over the row index of the column's observed values.

With --zero-as-missing (or impute.zero_as_missing in the configuration)
zero readings are treated as missing. Columns without any observation are
left unchanged and reported.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("accepts 2 arg(s), received %d", len(args))
		} else if args[0] == args[1] {
			return errors.New("input and output must differ")
		}
		return nil
	},
	RunE: runImpute,
}

func init() {
	rootCmd.AddCommand(imputeCmd)

	imputeCmd.Flags().BoolVar(
		&imputeZeroAsMissing,
		"zero-as-missing",
		false,
		"Treat zero readings as missing",
	)
}

func runImpute(cmd *cobra.Command, args []string) (err error) {
	input, output := args[0], args[1]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "impute",
		StartTime: time.Now(),
		Inputs:    []string{input},
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Err = err
		writeSummary(cfg, logger, summary)
	}()

	table, err := converter.LoadTable(input, cfg.XLSX.Sheet, cfg)
	if err != nil {
		return fmt.Errorf("failed to load table: %w", err)
	}

	result, err := impute.Table(table, impute.Options{
		TreatZeroAsMissing: imputeZeroAsMissing || cfg.Impute.ZeroAsMissing,
		SkipEmptyColumns:   true,
	})
	if err != nil {
		return err
	}

	for _, fit := range result.Fits {
		logger.Debug("column fitted",
			zap.String("column", fit.Column),
			zap.Float64("alpha", fit.Alpha),
			zap.Float64("beta", fit.Beta),
			zap.Int("observations", fit.Observations),
			zap.Int("filled", fit.Filled),
		)
	}
	if len(result.Skipped) > 0 {
		logger.Warn("columns without observations left unchanged", zap.Strings("columns", result.Skipped))
		summary.Warnings = append(summary.Warnings,
			"columns without observations: "+strings.Join(result.Skipped, ", "))
	}

	if err := utils.EnsureParentDir(output); err != nil {
		return err
	}
	if err := csvparser.Write(output, result.Table, cfg.CSV); err != nil {
		return err
	}

	summary.Outputs = append(summary.Outputs, output)
	summary.AddCounter("Rows", result.Table.NumRows())
	summary.AddCounter("Columns fitted", len(result.Fits))
	summary.AddCounter("Cells filled", result.Filled)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filled %d cell(s) in %d column(s)\n", result.Filled, len(result.Fits))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d column(s) without observations\n", len(result.Skipped))
	}
	fmt.Fprintf(out, "Wrote %s\n", output)

	return nil
}
