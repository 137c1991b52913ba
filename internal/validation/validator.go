// =============================================================================
// aqtools - Validation Engine
// =============================================================================
//
// This module checks a table before it is encoded. Encoding compares every
// item cell against a threshold, so every cell must hold a number. The
// validator reports:
//   - Text cells (neither numeric nor a missing marker)
//   - Missing cells
//   - Item columns with no numeric cell at all
//   - Rows with no numeric cell at all
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - Each error names the row, source line, column and raw value
//   - Errors are warnings (continue processing) or errors (stop processing)
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/aqmining/aqtools/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rules reported by the validator.
const (
	RuleText          = "non_numeric"
	RuleMissing       = "missing"
	RuleEmptyColumn   = "empty_column"
	RuleEmptyRow      = "empty_row"
	RuleNoItemColumns = "no_item_columns"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Rule is the check that failed.
	Rule string

	// Column is the item column label, empty for row-level findings.
	Column string

	// RowID is the identifier of the row, empty for column-level findings.
	RowID string

	// Line is the 1-based source line of the row, 0 when unknown.
	Line int

	// Value is the raw cell value.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where []string
	if e.RowID != "" {
		where = append(where, fmt.Sprintf("row %q", e.RowID))
	}
	if e.Line > 0 {
		where = append(where, fmt.Sprintf("line %d", e.Line))
	}
	if e.Column != "" {
		where = append(where, fmt.Sprintf("column %q", e.Column))
	}

	location := strings.Join(where, ", ")
	if location == "" {
		location = "table"
	}

	return fmt.Sprintf("[%s] %s: %s (value: '%s')",
		strings.ToUpper(e.Severity),
		location,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	// CellsValidated is the number of item cells inspected.
	CellsValidated int

	// MissingCells is the number of missing item cells.
	MissingCells int

	// TextCells is the number of non-numeric item cells.
	TextCells int
}

// Options contains options for validation.
type Options struct {
	// MissingIsError reports missing cells as errors rather than warnings.
	MissingIsError bool

	// MaxFindings caps the number of cell findings kept in Errors.
	// Counts are still complete. 0 keeps everything.
	MaxFindings int
}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{MaxFindings: 1000}
}

func (r *ValidationResult) add(e *ValidationError, limit int) {
	if e.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}

	if limit > 0 && len(r.Errors) >= limit {
		return
	}
	r.Errors = append(r.Errors, e)
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateTable checks every item cell of t.
func ValidateTable(t *types.Table, opts Options) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if t.NumColumns() == 0 {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     RuleNoItemColumns,
			Message:  "table has no item columns",
		}, opts.MaxFindings)
		return result
	}

	missingSeverity := SeverityWarning
	if opts.MissingIsError {
		missingSeverity = SeverityError
	}

	numericPerColumn := make([]int, t.NumColumns())

	for _, row := range t.Rows {
		numericInRow := 0

		for i, label := range t.Columns {
			cell := types.Missing("")
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			result.CellsValidated++

			switch cell.Kind {
			case types.CellNumeric:
				numericInRow++
				numericPerColumn[i]++

			case types.CellMissing:
				result.MissingCells++
				result.add(&ValidationError{
					Severity: missingSeverity,
					Rule:     RuleMissing,
					Column:   label,
					RowID:    row.ID,
					Line:     row.Line,
					Value:    cell.Raw,
					Message:  "cell is missing",
				}, opts.MaxFindings)

			default:
				result.TextCells++
				result.add(&ValidationError{
					Severity: SeverityError,
					Rule:     RuleText,
					Column:   label,
					RowID:    row.ID,
					Line:     row.Line,
					Value:    cell.Raw,
					Message:  "cell is not numeric",
				}, opts.MaxFindings)
			}
		}

		if numericInRow == 0 {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Rule:     RuleEmptyRow,
				RowID:    row.ID,
				Line:     row.Line,
				Message:  "row has no numeric cell",
			}, opts.MaxFindings)
		}
	}

	for i, label := range t.Columns {
		if numericPerColumn[i] == 0 {
			result.add(&ValidationError{
				Severity: SeverityWarning,
				Rule:     RuleEmptyColumn,
				Column:   label,
				Message:  "column has no numeric cell",
			}, opts.MaxFindings)
		}
	}

	return result
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes the formatted findings to filePath.
func WriteErrorLog(errors []*ValidationError, filePath string) error {
	if err := os.WriteFile(filePath, []byte(FormatErrors(errors)), 0o644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
