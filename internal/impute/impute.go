// =============================================================================
// aqtools - Linear Regression Imputation
// =============================================================================
//
// This module fills missing cells of a table with a per-column linear
// regression over the row index:
//
//   y = alpha + beta * rowIndex
//
// The line is fitted on the observed cells of the column and evaluated at
// the row index of every gap.
//
// =============================================================================

package impute

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/aqmining/aqtools/internal/types"
)

// ErrNoObservations is returned for a column without a single numeric cell.
var ErrNoObservations = errors.New("column has no numeric observations")

// ColumnError reports the column an imputation failure belongs to.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

// Options controls imputation.
type Options struct {
	// TreatZeroAsMissing marks zero readings as missing before fitting.
	TreatZeroAsMissing bool

	// SkipEmptyColumns leaves columns without observations untouched
	// instead of failing.
	SkipEmptyColumns bool
}

// Fit is the regression line fitted for one column.
type Fit struct {
	Column       string
	Alpha        float64
	Beta         float64
	Observations int
	Filled       int
}

// Result is the outcome of Table.
type Result struct {
	Table   *types.Table
	Fits    []Fit
	Filled  int
	Skipped []string
}

// Table returns a copy of t with every missing item cell replaced by the
// prediction of its column's regression line at the row index.
func Table(t *types.Table, opts Options) (*Result, error) {
	out := t.Clone()
	result := &Result{Table: out}

	for c, label := range out.Columns {
		x := make([]float64, 0, len(out.Rows))
		y := make([]float64, 0, len(out.Rows))
		var gaps []int

		for r, cell := range out.Column(c) {
			switch {
			case cell.Kind == types.CellText:
				return nil, &ColumnError{
					Column: label,
					Err:    fmt.Errorf("row %q: value %q is not numeric", out.Rows[r].ID, cell.Raw),
				}
			case cell.IsMissing(), opts.TreatZeroAsMissing && cell.Value == 0:
				gaps = append(gaps, r)
			default:
				x = append(x, float64(r))
				y = append(y, cell.Value)
			}
		}

		if len(gaps) == 0 {
			continue
		}

		fit, err := fitColumn(label, x, y)
		if err != nil {
			if opts.SkipEmptyColumns && errors.Is(err, ErrNoObservations) {
				result.Skipped = append(result.Skipped, label)
				continue
			}
			return nil, err
		}

		for _, r := range gaps {
			out.Rows[r].Cells[c] = types.Number(fit.Alpha + fit.Beta*float64(r))
		}
		fit.Filled = len(gaps)
		result.Filled += fit.Filled
		result.Fits = append(result.Fits, fit)
	}

	return result, nil
}

// fitColumn fits y = alpha + beta*x. A single observation yields a
// constant line.
func fitColumn(label string, x, y []float64) (Fit, error) {
	fit := Fit{Column: label, Observations: len(y)}

	switch len(y) {
	case 0:
		return fit, &ColumnError{Column: label, Err: ErrNoObservations}
	case 1:
		fit.Alpha = y[0]
	default:
		fit.Alpha, fit.Beta = stat.LinearRegression(x, y, nil, false)
	}

	return fit, nil
}
