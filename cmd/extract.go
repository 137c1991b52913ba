// =============================================================================
// aqtools - Extract Command
// =============================================================================
//
// COMMAND USAGE:
//   aqtools extract <output.csv> [table] [parameter]
//
// The connection and the column names come from the database section of the
// configuration. [table] and [parameter] override it.
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

	"github.com/aqmining/aqtools/internal/csvparser"
	"github.com/aqmining/aqtools/internal/etl"
	"github.com/aqmining/aqtools/pkg/utils"
)

var extractCmd = &cobra.Command{
	Use:   "extract <output.csv> [table] [parameter]",
	Short: "Extract readings into a wide timestamp x station table",
	Long: `Extract the readings of one parameter from the database into a wide table
with one row per timestamp and one column per station.

NULL readings and sentinel values become missing cells. The parameter may
be given by name or by its index, from 3 (` + etl.Parameters()[0] + `) to 18 (` + etl.Parameters()[15] + `):
  ` + strings.Join(etl.Parameters(), ", "),
	Args: cobra.RangeArgs(1, 3),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) (err error) {
	output := args[0]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	summary := utils.RunSummary{
		Command:   "extract",
		StartTime: time.Now(),
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.Err = err
		writeSummary(cfg, logger, summary)
	}()

	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is not set in the configuration")
	}

	q := etl.QueryFromConfig(cfg.Database)
	if len(args) > 1 {
		q.Table = args[1]
	}
	if len(args) > 2 {
		q.Parameter = args[2]
	}
	summary.Inputs = []string{fmt.Sprintf("%s:%s.%s", cfg.Database.Driver, q.Table, q.Parameter)}

	db, err := etl.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	table, stats, err := etl.NewExtractor(db, cfg.Database.Driver, logger).Extract(cmd.Context(), q)
	if err != nil {
		return err
	}

	if err := utils.EnsureParentDir(output); err != nil {
		return err
	}
	if err := csvparser.Write(output, table, cfg.CSV); err != nil {
		return err
	}

	summary.Outputs = []string{output}
	summary.AddCounter("Timestamps", stats.Timestamps)
	summary.AddCounter("Stations", stats.Stations)
	summary.AddCounter("Readings", stats.Readings)
	summary.AddCounter("Missing", stats.Missing)

	logger.Info("wrote extracted table",
		zap.String("output", output),
		zap.Duration("duration", stats.Duration),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Extracted %d timestamp(s) x %d station(s) to %s\n", stats.Timestamps, stats.Stations, output)
	fmt.Fprintf(out, "Readings: %d, missing: %d\n", stats.Readings, stats.Missing)

	return nil
}
