// Package derive computes per-row metrics from existing columns. Each stage
// returns a new table with the derived column set; recomputing over a
// stage's own output yields the same values.
package derive

import (
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// withFloatColumn returns a deep copy of in that declares a float column
// with the given name, appending it when absent.
func withFloatColumn(in *tbl.Table, name string) *tbl.Table {
	cols := make([]tbl.ColumnSchema, len(in.Schema().Columns))
	copy(cols, in.Schema().Columns)
	if !in.Schema().HasColumn(name) {
		cols = append(cols, tbl.ColumnSchema{Name: name, Type: tbl.KindFloat, Nullable: true})
	}
	out := tbl.New(tbl.Schema{Columns: cols})
	for r := 0; r < in.Rows(); r++ {
		out.AppendNullRow()
		tbl.CopyRow(out, r, in, r)
	}
	return out
}

// numAt reads a numeric cell from an int or float column.
func numAt(t *tbl.Table, name string, row int) (float64, bool) {
	col, ok := t.ColumnByName(name)
	if !ok {
		return 0, false
	}
	switch c := col.(type) {
	case *tbl.FloatColumn:
		return c.Get(row)
	case *tbl.IntColumn:
		v, ok := c.Get(row)
		return float64(v), ok
	}
	return 0, false
}
