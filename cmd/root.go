// =============================================================================
// aqtools - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every batch job of
// the air-quality workflow is a sub-command attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (aqtools)
//   ├── extractCmd    (aqtools extract)
//   ├── preprocessCmd (aqtools preprocess)
//   ├── imputeCmd     (aqtools impute)
//   ├── validateCmd   (aqtools validate)
//   ├── encodeCmd     (aqtools encode)
//   ├── statsCmd      (aqtools stats)
//   └── versionCmd    (aqtools version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose). Commands
//   load the configuration and build their logger through setup().
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/logging"
	"github.com/aqmining/aqtools/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aqtools",
	Short: "aqtools - Air-quality table preparation and transactional encoding",
	Long: `aqtools prepares air-quality sensor readings for frequent pattern mining.

It extracts hourly readings from a relational store into a wide
timestamp x station table, cleans and imputes the table, and encodes it
into a transactional file where each line lists the stations whose
reading satisfies a condition.

Example Usage:
  aqtools extract readings.csv data pm25        # Store -> wide table
  aqtools preprocess readings.csv clean.csv     # Apply configured steps
  aqtools impute clean.csv filled.csv           # Linear regression fill
  aqtools encode filled.csv ">" 35 pm25.txt     # Table -> transactions
  aqtools stats pm25.txt freq.csv lengths.csv   # Transactional statistics`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: The configuration file. A missing default file falls
	// back to built-in defaults; an explicitly named one must exist.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED COMMAND HELPERS
// =============================================================================

// setup loads the configuration and builds the logger for cmd.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	required := cmd.Flags().Changed("config")

	cfg, err := config.Load(cfgFile, required)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger = logger.With(zap.String("command", cmd.Name()))
	logger.Debug("configuration loaded", zap.String("path", cfgFile), zap.Bool("required", required))

	return cfg, logger, nil
}

// writeSummary writes the run summary when summaries are enabled. A failure
// to write it is logged and never fails the run.
func writeSummary(cfg *config.Config, logger *zap.Logger, summary utils.RunSummary) {
	if cfg.SummaryDir == "" {
		return
	}

	path, err := utils.WriteSummaryLog(summary, cfg.SummaryDir, cfg.SummaryFormat)
	if err != nil {
		logger.Warn("failed to write run summary", zap.Error(err))
		return
	}
	logger.Info("wrote run summary", zap.String("path", path))
}
