// =============================================================================
// aqtools - Preprocessing Pipeline
// =============================================================================
//
// This module cleans a wide sensor table before it is imputed or encoded.
// Steps come from the "preprocess.steps" section of config.yaml and are
// applied in order to a copy of the table:
//
//   preprocess:
//     steps:
//       - type: drop_columns
//         columns: ["Column_1"]
//       - type: replace_where
//         operator: ">"
//         threshold: 500
//         value: 0
//       - type: filter_sparse
//         value: 0
//         max_fraction: 0.8
//       - type: rename_unnamed
//         format: "Point{n}"
//       - type: rename_id
//         name: TID
//
// Missing cells never match a condition. A text cell reaching a numeric
// step fails the run.
//
// =============================================================================

package preprocess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/aqmining/aqtools/internal/condition"
	"github.com/aqmining/aqtools/internal/config"
	"github.com/aqmining/aqtools/internal/impute"
	"github.com/aqmining/aqtools/internal/types"
)

// ErrUnknownStep is returned for a step type the pipeline does not know.
var ErrUnknownStep = errors.New("unknown step type")

// unnamedPattern matches labels given to empty headers by the readers.
var unnamedPattern = regexp.MustCompile(`^Column_(\d+)$`)

// StepError reports the step a failure occurred in.
type StepError struct {
	// Index is the 1-based position of the step in the pipeline.
	Index int
	Type  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("preprocess step %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepReport describes the effect of one step.
type StepReport struct {
	Type          string
	RowsBefore    int
	RowsAfter     int
	ColumnsBefore int
	ColumnsAfter  int
	CellsChanged  int
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline applies preprocessing steps to tables.
type Pipeline struct {
	steps  []config.Step
	logger *zap.Logger
}

// NewPipeline creates a pipeline for the given steps.
func NewPipeline(steps []config.Step, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Run applies every step in order to a copy of t.
func (p *Pipeline) Run(t *types.Table) (*types.Table, []StepReport, error) {
	out := t.Clone()
	reports := make([]StepReport, 0, len(p.steps))

	for i, step := range p.steps {
		report := StepReport{
			Type:          step.Type,
			RowsBefore:    out.NumRows(),
			ColumnsBefore: out.NumColumns(),
		}

		changed, err := ApplyStep(out, step)
		if err != nil {
			return nil, reports, &StepError{Index: i + 1, Type: step.Type, Err: err}
		}

		report.RowsAfter = out.NumRows()
		report.ColumnsAfter = out.NumColumns()
		report.CellsChanged = changed
		reports = append(reports, report)

		p.logger.Debug("preprocess step applied",
			zap.Int("step", i+1),
			zap.String("type", step.Type),
			zap.Int("rows", report.RowsAfter),
			zap.Int("columns", report.ColumnsAfter),
			zap.Int("cells_changed", changed),
		)
	}

	return out, reports, nil
}

// ApplyStep applies a single step to t in place and returns the number of
// cells it changed.
//
// SUPPORTED STEPS:
//   See the switch statement below for all supported step types.
func ApplyStep(t *types.Table, step config.Step) (int, error) {
	switch step.Type {

	// =========================================================================
	// COLUMN SELECTION
	// =========================================================================

	case "drop_columns":
		// Remove the listed item columns.
		//
		// EXAMPLE:
		//   Columns: [s1, s2, s3], step columns: [s2]
		//   Output:  [s1, s3]
		drop := make(map[string]bool, len(step.Columns))
		for _, label := range step.Columns {
			if t.ColumnIndex(label) < 0 {
				return 0, fmt.Errorf("column %q not found", label)
			}
			drop[label] = true
		}
		t.KeepColumns(func(_ int, label string) bool { return !drop[label] })
		return 0, nil

	case "drop_columns_where":
		// Remove every item column with at least one cell satisfying the
		// condition.
		cond, err := condition.New(step.Operator, step.Threshold)
		if err != nil {
			return 0, err
		}
		drop := make([]bool, t.NumColumns())
		err = eachNumeric(t, func(r, c int, v float64) {
			if cond.Match(v) {
				drop[c] = true
			}
		})
		if err != nil {
			return 0, err
		}
		t.KeepColumns(func(i int, _ string) bool { return !drop[i] })
		return 0, nil

	case "filter_sparse":
		// Remove item columns whose share of cells equal to Value exceeds
		// MaxFraction.
		//
		// EXAMPLE:
		//   Value 0, MaxFraction 0.5, column [0, 0, 0, 4] -> dropped (0.75)
		if t.NumRows() == 0 {
			return 0, nil
		}
		hits := make([]int, t.NumColumns())
		err := eachNumeric(t, func(r, c int, v float64) {
			if v == step.Value {
				hits[c]++
			}
		})
		if err != nil {
			return 0, err
		}
		rows := float64(t.NumRows())
		t.KeepColumns(func(i int, _ string) bool {
			return float64(hits[i])/rows <= step.MaxFraction
		})
		return 0, nil

	case "head":
		// Keep the first Rows rows and the first Cols item columns.
		// Zero keeps everything.
		if step.Rows < 0 || step.Cols < 0 {
			return 0, fmt.Errorf("rows and cols must not be negative")
		}
		if step.Rows > 0 && step.Rows < t.NumRows() {
			t.Rows = t.Rows[:step.Rows]
		}
		if step.Cols > 0 && step.Cols < t.NumColumns() {
			t.KeepColumns(func(i int, _ string) bool { return i < step.Cols })
		}
		return 0, nil

	// =========================================================================
	// CELL REPLACEMENT
	// =========================================================================

	case "fill_missing":
		// Replace missing cells by Value.
		changed := 0
		for r := range t.Rows {
			for c := range t.Rows[r].Cells {
				if t.Rows[r].Cells[c].IsMissing() {
					t.Rows[r].Cells[c] = types.Number(step.Value)
					changed++
				}
			}
		}
		return changed, nil

	case "zero_as_missing":
		// Mark cells equal to zero as missing.
		changed := 0
		err := eachNumeric(t, func(r, c int, v float64) {
			if v == 0 {
				t.Rows[r].Cells[c] = types.Missing("")
				changed++
			}
		})
		return changed, err

	case "replace_where":
		// Replace cells satisfying the condition by Value.
		//
		// EXAMPLE:
		//   Operator ">", Threshold 500, Value 0
		//   Input:  [12, 999, NaN]
		//   Output: [12, 0, NaN]
		cond, err := condition.New(step.Operator, step.Threshold)
		if err != nil {
			return 0, err
		}
		changed := 0
		err = eachNumeric(t, func(r, c int, v float64) {
			if cond.Match(v) {
				t.Rows[r].Cells[c] = types.Number(step.Value)
				changed++
			}
		})
		return changed, err

	case "impute_linear":
		// Fill missing cells by a per-column linear regression.
		result, err := impute.Table(t, impute.Options{})
		if err != nil {
			return 0, err
		}
		*t = *result.Table
		return result.Filled, nil

	// =========================================================================
	// LABELS
	// =========================================================================

	case "rename_unnamed":
		// Rename Column_<n> labels using Format.
		//
		// EXAMPLE:
		//   Format "Point{n}", label "Column_7" -> "Point7"
		if !strings.Contains(step.Format, "{n}") {
			return 0, fmt.Errorf("format %q has no {n} placeholder", step.Format)
		}
		renamed := append([]string(nil), t.Columns...)
		for i, label := range renamed {
			if m := unnamedPattern.FindStringSubmatch(label); m != nil {
				renamed[i] = strings.ReplaceAll(step.Format, "{n}", m[1])
			}
		}
		if err := checkUnique(append([]string{t.IDHeader}, renamed...)); err != nil {
			return 0, err
		}
		t.Columns = renamed
		return 0, nil

	case "rename_id":
		// Rename the identifier column.
		if t.ColumnIndex(step.Name) >= 0 {
			return 0, fmt.Errorf("name %q is already an item column", step.Name)
		}
		t.IDHeader = step.Name
		return 0, nil

	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownStep, step.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// eachNumeric calls fn for every numeric item cell. Missing cells are
// skipped and text cells are an error.
func eachNumeric(t *types.Table, fn func(r, c int, v float64)) error {
	for r, row := range t.Rows {
		for c, cell := range row.Cells {
			switch cell.Kind {
			case types.CellNumeric:
				fn(r, c, cell.Value)
			case types.CellText:
				return fmt.Errorf("row %q, column %q: value %q is not numeric", row.ID, t.Columns[c], cell.Raw)
			}
		}
	}
	return nil
}

// checkUnique rejects duplicate labels.
func checkUnique(labels []string) error {
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if seen[label] {
			return fmt.Errorf("duplicate column label %q", label)
		}
		seen[label] = true
	}
	return nil
}
