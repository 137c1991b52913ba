// =============================================================================
// aqtools - Converter Module
// =============================================================================
//
// This module orchestrates the encode pipeline for a single input file, from
// table parsing to the transactional file.
//
// CONVERSION PIPELINE:
//   1. Parse the input table (CSV or XLSX)
//   2. Apply the configured preprocessing steps
//   3. Validate the cleaned table
//   4. Encode the table into transactions and write the output file
//   5. Optionally compute statistics of the output into a workbook
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/csvparser"
	"github.com/aqmining/aqtools/internal/encoder"
	"github.com/aqmining/aqtools/internal/preprocess"
	"github.com/aqmining/aqtools/internal/txstats"
	"github.com/aqmining/aqtools/internal/types"
	"github.com/aqmining/aqtools/internal/validation"
	"github.com/aqmining/aqtools/internal/xlsxparser"
	"github.com/aqmining/aqtools/pkg/utils"
)

// maxLoggedFindings caps the validation findings written to the log.
const maxLoggedFindings = 20

// =============================================================================
// JOB AND RESULT STRUCTURES
// =============================================================================

// Job describes one encode run.
type Job struct {
	// InputPath is the table to encode (.csv or .xlsx).
	InputPath string

	// Sheet is the workbook sheet to read. Empty uses the configured sheet,
	// then the first sheet.
	Sheet string

	// Operator and Threshold form the condition.
	Operator  string
	Threshold float64

	// OutputPath receives the transactional file.
	OutputPath string

	// StatsXLSX, when set, receives a statistics workbook of the output.
	StatsXLSX string
}

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the transactional file.
	// This is empty if processing failed.
	OutputFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats

	// Validation is the validation report of the cleaned table.
	Validation *validation.ValidationResult

	// Database holds the statistics of the output when StatsXLSX was set.
	Database *txstats.Stats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	RowsProcessed       int
	ColumnsProcessed    int
	StepsApplied        int
	TransactionsWritten int
	RowsSkipped         int
	DistinctItems       int
	ValidationErrors    int
	ValidationWarnings  int
	ProcessingTime      time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the encode pipeline for one job.
type Converter struct {
	job    Job
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a new Converter instance.
func New(job Job, cfg *config.Config, logger *zap.Logger) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		job:    job,
		cfg:    cfg,
		logger: logger.With(zap.String("input", job.InputPath)),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline. The output file is only written when every
// earlier step succeeded.
func (c *Converter) Run() (result Result) {
	startTime := time.Now()
	result.FilePath = c.job.InputPath

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: PARSE INPUT TABLE
	// =========================================================================

	c.logger.Info("processing file")

	table, err := LoadTable(c.job.InputPath, c.sheet(), c.cfg)
	if err != nil {
		result.Error = fmt.Errorf("failed to load table: %w", err)
		return result
	}

	c.logger.Debug("parsed table",
		zap.Int("rows", table.NumRows()),
		zap.Int("columns", table.NumColumns()),
	)

	// =========================================================================
	// STEP 2: PREPROCESS
	// =========================================================================

	if steps := c.cfg.Preprocess.Steps; len(steps) > 0 {
		table, _, err = preprocess.NewPipeline(steps, c.logger).Run(table)
		if err != nil {
			result.Error = err
			return result
		}
		result.Stats.StepsApplied = len(steps)
	}

	result.Stats.RowsProcessed = table.NumRows()
	result.Stats.ColumnsProcessed = table.NumColumns()

	// =========================================================================
	// STEP 3: VALIDATE
	// =========================================================================
	// Findings are logged. Cells the encoder cannot compare still fail it.

	report := validation.ValidateTable(table, validation.Options{
		MissingIsError: c.cfg.Validation.MissingIsError,
		MaxFindings:    maxLoggedFindings,
	})
	result.Validation = report
	result.Stats.ValidationErrors = report.ErrorCount
	result.Stats.ValidationWarnings = report.WarningCount

	for _, finding := range report.Errors {
		c.logger.Warn("validation finding", zap.String("finding", finding.Error()))
	}
	if !report.IsValid && c.cfg.Validation.MissingIsError {
		result.Error = fmt.Errorf("validation failed with %d error(s)", report.ErrorCount)
		return result
	}

	// =========================================================================
	// STEP 4: ENCODE
	// =========================================================================

	encoded, err := encoder.Encode(table, c.job.Operator, c.job.Threshold, c.job.OutputPath)
	if err != nil {
		result.Error = err
		return result
	}

	result.OutputFile = encoded.OutputPath
	result.Stats.TransactionsWritten = encoded.TransactionsWritten
	result.Stats.RowsSkipped = encoded.RowsSkipped
	result.Stats.DistinctItems = encoded.DistinctItems

	c.logger.Info("wrote transactional file",
		zap.String("output", encoded.OutputPath),
		zap.String("condition", encoded.Condition.String()),
		zap.Int("transactions", encoded.TransactionsWritten),
		zap.Int("skipped", encoded.RowsSkipped),
	)

	// =========================================================================
	// STEP 5: STATISTICS WORKBOOK
	// =========================================================================

	if c.job.StatsXLSX != "" {
		stats, err := c.writeStats(encoded.OutputPath)
		if err != nil {
			result.Error = fmt.Errorf("failed to write statistics: %w", err)
			return result
		}
		result.Database = stats
	}

	result.Success = true
	return result
}

// writeStats computes the statistics of the transactional file and writes
// the workbook. An output without transactions has no statistics.
func (c *Converter) writeStats(path string) (*txstats.Stats, error) {
	db, err := txstats.ReadFile(path, encoder.Separator)
	if err != nil {
		return nil, err
	}

	stats, err := txstats.Compute(db)
	if errors.Is(err, txstats.ErrEmptyDatabase) {
		c.logger.Warn("no transactions, statistics workbook skipped")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := utils.EnsureParentDir(c.job.StatsXLSX); err != nil {
		return nil, err
	}
	if err := txstats.WriteWorkbook(c.job.StatsXLSX, stats); err != nil {
		return nil, err
	}

	c.logger.Info("wrote statistics workbook", zap.String("path", c.job.StatsXLSX))
	return stats, nil
}

func (c *Converter) sheet() string {
	if c.job.Sheet != "" {
		return c.job.Sheet
	}
	return c.cfg.XLSX.Sheet
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// LoadTable reads a table from a CSV file or, for .xlsx paths, a workbook
// sheet.
func LoadTable(path, sheet string, cfg *config.Config) (*types.Table, error) {
	if utils.IsXLSX(path) {
		return xlsxparser.Parse(path, sheet, cfg.CSV)
	}
	return csvparser.Parse(path, cfg.CSV)
}
