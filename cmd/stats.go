// =============================================================================
// aqtools - Stats Command
// =============================================================================
//
// COMMAND USAGE:
//   aqtools stats <transactional> <item-frequencies.csv> <length-distribution.csv> [flags]
//
// FLAGS:
//   --sep   Item separator of the transactional file
//   --xlsx  Also write the statistics as a workbook
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/txstats"
	"github.com/aqmining/aqtools/pkg/utils"
)

var (
	statsSeparator string
	statsXLSX      string
)

var statsCmd = &cobra.Command{
	Use:   "stats <transactional> <item-frequencies.csv> <length-distribution.csv>",
	Short: "Compute statistics of a transactional file",
	Long: `Compute statistics of a transactional file: database size, transaction
length figures, distinct items, sparsity and density.

Item frequencies (descending) and the transaction length distribution
(ascending) are written as two-column CSV files.`,
	Args: cobra.ExactArgs(3),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(
		&statsSeparator,
		"sep",
		"",
		"Item separator (default is transactional.separator, a tab)",
	)

	statsCmd.Flags().StringVar(
		&statsXLSX,
		"xlsx",
		"",
		"Write a statistics workbook to this path",
	)
}

func runStats(cmd *cobra.Command, args []string) (err error) {
	input, freqPath, lengthPath := args[0], args[1], args[2]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "stats",
		StartTime: time.Now(),
		Inputs:    []string{input},
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Err = err
		writeSummary(cfg, logger, summary)
	}()

	sep := statsSeparator
	if sep == "" {
		sep = cfg.Transactional.Separator
	}

	db, err := txstats.ReadFile(input, sep)
	if err != nil {
		return err
	}

	stats, err := txstats.Compute(db)
	if err != nil {
		return err
	}

	outputs := []string{freqPath, lengthPath}
	if statsXLSX != "" {
		outputs = append(outputs, statsXLSX)
	}
	for _, path := range outputs {
		if err := utils.EnsureParentDir(path); err != nil {
			return err
		}
	}

	if err := txstats.WriteFrequencies(freqPath, stats); err != nil {
		return err
	}
	if err := txstats.WriteLengthDistribution(lengthPath, stats); err != nil {
		return err
	}
	if statsXLSX != "" {
		if err := txstats.WriteWorkbook(statsXLSX, stats); err != nil {
			return err
		}
	}

	summary.Outputs = outputs
	summary.AddCounter("Transactions", stats.DatabaseSize)
	summary.AddCounter("Distinct items", stats.DistinctItems)
	summary.AddCounter("Item occurrences", stats.TotalItems)

	logger.Info("wrote statistics",
		zap.Int("transactions", stats.DatabaseSize),
		zap.Int("distinct_items", stats.DistinctItems),
	)

	out := cmd.OutOrStdout()
	for _, line := range stats.Summary() {
		fmt.Fprintf(out, "%-42s %s\n", line[0]+":", line[1])
	}

	return nil
}
