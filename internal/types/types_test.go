package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	return &Table{
		IDHeader: "TID",
		Columns:  []string{"c1", "c2", "c3"},
		Rows: []Row{
			{ID: "A", Cells: []Cell{Number(5), Number(0), Number(9)}, Line: 2},
			{ID: "B", Cells: []Cell{Missing("NaN"), Text("x"), Number(1)}, Line: 3},
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := sampleTable()
	cp := orig.Clone()

	cp.Columns[0] = "changed"
	cp.Rows[0].Cells[0] = Number(42)

	assert.Equal(t, "c1", orig.Columns[0])
	assert.Equal(t, 5.0, orig.Rows[0].Cells[0].Value)
}

func TestKeepColumnsPreservesOrder(t *testing.T) {
	tbl := sampleTable()
	tbl.KeepColumns(func(_ int, label string) bool { return label != "c2" })

	assert.Equal(t, []string{"c1", "c3"}, tbl.Columns)
	require.Len(t, tbl.Rows[0].Cells, 2)
	assert.Equal(t, 9.0, tbl.Rows[0].Cells[1].Value)
	assert.True(t, tbl.Rows[1].Cells[0].IsMissing())
}

func TestColumnIndex(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 2, tbl.ColumnIndex("c3"))
	assert.Equal(t, -1, tbl.ColumnIndex("TID"))
}

func TestCellConstructors(t *testing.T) {
	assert.Equal(t, "2.5", Number(2.5).Raw)
	assert.True(t, Number(0).IsNumeric())
	assert.Equal(t, "text", Text("abc").Kind.String())
	assert.Equal(t, "missing", Missing("").Kind.String())
}

func TestColumnIsCopy(t *testing.T) {
	tbl := sampleTable()

	col := tbl.Column(1)
	require.Len(t, col, 2)
	assert.Equal(t, 0.0, col[0].Value)
	assert.Equal(t, CellText, col[1].Kind)

	col[0] = Number(7)
	assert.Equal(t, 0.0, tbl.Rows[0].Cells[1].Value)
}
