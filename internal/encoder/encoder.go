// =============================================================================
// aqtools - Transactional Encoder
// =============================================================================
//
// This module converts a dense table into a transactional database: one line
// per row, listing the item labels whose cell satisfies a condition.
//
// ENCODING PIPELINE:
//   1. Resolve the operator (fails fast, nothing is written)
//   2. Check the table has rows and item columns
//   3. Build every transaction in memory
//   4. Truncate the output file and write one line per non-empty transaction
//
// Because step 3 finishes before step 4 starts, a cell that cannot be
// compared leaves the output path untouched.
//
// OUTPUT FORMAT:
//   c1<TAB>c3\n
//   c2\n
//
// =============================================================================

package encoder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aqmining/aqtools/internal/condition"
	"github.com/aqmining/aqtools/internal/types"
)

// Separator joins the items of one transaction.
const Separator = "\t"

var (
	// ErrEmptyTable is returned for a table without rows.
	ErrEmptyTable = errors.New("table has no rows")

	// ErrNoItems is returned for a table without item columns.
	ErrNoItems = errors.New("table has no item columns")
)

// =============================================================================
// ERRORS
// =============================================================================

// ComparisonError is returned when a cell cannot be compared with the
// threshold because it is missing or not a number.
type ComparisonError struct {
	// RowID is the identifier of the offending row.
	RowID string

	// Line is the 1-based source line of the row (0 if unknown).
	Line int

	// Column is the item label of the offending cell.
	Column string

	// Value is the raw cell text.
	Value string

	// Kind is the classification of the cell.
	Kind types.CellKind
}

func (e *ComparisonError) Error() string {
	where := fmt.Sprintf("row %q", e.RowID)
	if e.Line > 0 {
		where = fmt.Sprintf("row %q (line %d)", e.RowID, e.Line)
	}
	return fmt.Sprintf("cannot compare %s cell %q in %s, column %q", e.Kind, e.Value, where, e.Column)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Transaction is the list of items of one row that satisfied the condition.
type Transaction struct {
	RowID string
	Items []string
}

// Transactions evaluates cond against every item cell of t and returns the
// non-empty transactions in row order. Items keep column order.
func Transactions(t *types.Table, cond condition.Condition) ([]Transaction, error) {
	if !cond.Kind.Valid() {
		return nil, &condition.InvalidConditionError{Operator: cond.Kind.String()}
	}
	if t == nil || len(t.Rows) == 0 {
		return nil, ErrEmptyTable
	}
	if len(t.Columns) == 0 {
		return nil, ErrNoItems
	}

	var txs []Transaction
	for _, row := range t.Rows {
		var items []string
		for i, label := range t.Columns {
			cell := types.Missing("")
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			if !cell.IsNumeric() {
				return nil, &ComparisonError{
					RowID:  row.ID,
					Line:   row.Line,
					Column: label,
					Value:  cell.Raw,
					Kind:   cell.Kind,
				}
			}
			if cond.Match(cell.Value) {
				items = append(items, label)
			}
		}
		if len(items) > 0 {
			txs = append(txs, Transaction{RowID: row.ID, Items: items})
		}
	}

	return txs, nil
}

// Write serializes txs, one tab-separated line per transaction.
func Write(w io.Writer, txs []Transaction) error {
	bw := bufio.NewWriter(w)
	for _, tx := range txs {
		if len(tx.Items) == 0 {
			continue
		}
		if _, err := bw.WriteString(strings.Join(tx.Items, Separator)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// =============================================================================
// ENCODE
// =============================================================================

// Result summarizes one encoding run.
type Result struct {
	// OutputPath is the file that was written.
	OutputPath string

	// Condition is the comparison that was applied.
	Condition condition.Condition

	// RowsScanned is the number of table rows.
	RowsScanned int

	// TransactionsWritten is the number of lines in the output file.
	TransactionsWritten int

	// RowsSkipped is the number of rows with no satisfying item.
	RowsSkipped int

	// DistinctItems is the number of item labels that appear in the output.
	DistinctItems int
}

// Encode converts t into a transactional file at outputPath.
//
// PARAMETERS:
//   - t: The table to convert. Its identifier column is never compared.
//   - op: One of "<", ">", "<=", ">=", "==", "!=".
//   - threshold: The value every item cell is compared against.
//   - outputPath: The file to create or truncate.
//
// RETURNS:
//   - A Result describing what was written.
//   - *condition.InvalidConditionError for an unsupported op, before any write.
//   - *ComparisonError for a missing or non-numeric cell, before any write.
//   - A wrapped I/O error if the output cannot be written.
func Encode(t *types.Table, op string, threshold float64, outputPath string) (*Result, error) {
	cond, err := condition.New(op, threshold)
	if err != nil {
		return nil, err
	}

	txs, err := Transactions(t, cond)
	if err != nil {
		return nil, err
	}

	if err := writeFile(outputPath, txs); err != nil {
		return nil, err
	}

	distinct := make(map[string]struct{})
	for _, tx := range txs {
		for _, item := range tx.Items {
			distinct[item] = struct{}{}
		}
	}

	return &Result{
		OutputPath:          outputPath,
		Condition:           cond,
		RowsScanned:         len(t.Rows),
		TransactionsWritten: len(txs),
		RowsSkipped:         len(t.Rows) - len(txs),
		DistinctItems:       len(distinct),
	}, nil
}

// writeFile truncates path and writes txs to it.
func writeFile(path string, txs []Transaction) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Write(file, txs); err != nil {
		file.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
