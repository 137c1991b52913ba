// =============================================================================
// aqtools - Shared Types
// =============================================================================
//
// This package contains the table model shared by the readers, the
// preprocessing pipeline, the imputer, the extractor and the encoder. Keeping
// it in its own package avoids import cycles between those modules.
//
// TABLE LAYOUT:
//   TID,        c1,  c2,  c3      <- header: identifier label + item labels
//   2021-01-01, 5,   0,   9       <- row: identifier + one cell per item
//
// =============================================================================

package types

import (
	"strconv"
)

// =============================================================================
// CELL
// =============================================================================

// CellKind classifies the content of a single cell.
type CellKind int

const (
	// CellMissing marks a cell that holds one of the configured missing markers.
	CellMissing CellKind = iota

	// CellNumeric marks a cell whose text parsed as a float64.
	CellNumeric

	// CellText marks a cell that is neither numeric nor a missing marker.
	CellText
)

// String returns the lowercase name of the kind.
func (k CellKind) String() string {
	switch k {
	case CellMissing:
		return "missing"
	case CellNumeric:
		return "numeric"
	case CellText:
		return "text"
	default:
		return "unknown"
	}
}

// Cell is one value of an item column.
type Cell struct {
	// Raw is the text as it appeared in the source file.
	Raw string

	// Value is the parsed number. Only meaningful when Kind is CellNumeric.
	Value float64

	// Kind classifies the cell.
	Kind CellKind
}

// Number returns a numeric cell holding v.
func Number(v float64) Cell {
	return Cell{Raw: strconv.FormatFloat(v, 'f', -1, 64), Value: v, Kind: CellNumeric}
}

// Missing returns a missing cell that remembers the raw marker it came from.
func Missing(raw string) Cell {
	return Cell{Raw: raw, Kind: CellMissing}
}

// Text returns a cell holding non-numeric text.
func Text(raw string) Cell {
	return Cell{Raw: raw, Kind: CellText}
}

// IsNumeric reports whether the cell holds a number.
func (c Cell) IsNumeric() bool {
	return c.Kind == CellNumeric
}

// IsMissing reports whether the cell is missing.
func (c Cell) IsMissing() bool {
	return c.Kind == CellMissing
}

// =============================================================================
// ROW AND TABLE
// =============================================================================

// Row is one record of a table.
type Row struct {
	// ID is the value of the identifier (first) column.
	ID string

	// Cells holds one cell per item column, in column order.
	Cells []Cell

	// Line is the 1-based line (or spreadsheet row) the record was read from.
	// Zero for rows that were built in memory.
	Line int
}

// Table is an ordered set of rows keyed by an identifier column and an
// ordered set of item columns.
type Table struct {
	// IDHeader is the label of the identifier column, usually "TID" or "TimeStamp".
	IDHeader string

	// Columns holds the item labels, excluding the identifier column.
	Columns []string

	// Rows holds the records in source order.
	Rows []Row

	// Source is the path the table was read from, if any.
	Source string
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// NumColumns returns the number of item columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the item column with the given label,
// or -1 when there is none.
func (t *Table) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		IDHeader: t.IDHeader,
		Columns:  append([]string(nil), t.Columns...),
		Rows:     make([]Row, len(t.Rows)),
		Source:   t.Source,
	}
	for i, r := range t.Rows {
		out.Rows[i] = Row{
			ID:    r.ID,
			Cells: append([]Cell(nil), r.Cells...),
			Line:  r.Line,
		}
	}
	return out
}

// KeepColumns retains only the item columns for which keep returns true.
// Column order is preserved.
func (t *Table) KeepColumns(keep func(index int, label string) bool) {
	indices := make([]int, 0, len(t.Columns))
	for i, label := range t.Columns {
		if keep(i, label) {
			indices = append(indices, i)
		}
	}

	columns := make([]string, len(indices))
	for j, i := range indices {
		columns[j] = t.Columns[i]
	}
	t.Columns = columns

	for r := range t.Rows {
		cells := make([]Cell, len(indices))
		for j, i := range indices {
			cells[j] = t.Rows[r].Cells[i]
		}
		t.Rows[r].Cells = cells
	}
}

// Column returns a copy of the cells of item column i.
func (t *Table) Column(i int) []Cell {
	cells := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = row.Cells[i]
	}
	return cells
}
