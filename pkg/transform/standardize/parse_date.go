// Package standardize holds value-normalization stages applied before
// validation. Like every transform, they return a new table.
package standardize

import (
	"context"
	"log/slog"
	"time"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// ParseDate converts a string column holding YYYY-MM-DD values into a date
// column. Rows whose value is present but not a parseable date are dropped:
// such values cannot even be range-checked downstream. A column that is
// already a date column passes through untouched, so the stage is
// idempotent.
type ParseDate struct {
	Column string
}

func (t *ParseDate) Name() string { return "parse_date" }

func (t *ParseDate) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	col, ok := in.ColumnByName(t.Column)
	if !ok {
		return in, nil
	}
	sc, ok := col.(*tbl.StringColumn)
	if !ok {
		// already converted (or not convertible at all)
		return in, nil
	}

	cols := make([]tbl.ColumnSchema, len(in.Schema().Columns))
	copy(cols, in.Schema().Columns)
	for i := range cols {
		if cols[i].Name == t.Column {
			cols[i].Type = tbl.KindDate
		}
	}
	out := tbl.New(tbl.Schema{Columns: cols})

	var malformed int
	for r := 0; r < in.Rows(); r++ {
		s, present := sc.Get(r)
		var parsed time.Time
		if present {
			v, err := time.ParseInLocation(tbl.DateFormat, s, time.UTC)
			if err != nil {
				malformed++
				continue
			}
			parsed = v
		}
		out.AppendNullRow()
		row := out.Rows() - 1
		tbl.CopyRow(out, row, in, r)
		if present {
			_ = out.SetCell(row, t.Column, parsed)
		}
	}
	if malformed > 0 {
		slog.Warn("dropped rows with malformed dates",
			slog.String("column", t.Column),
			slog.Int("dropped", malformed))
	}
	return out, nil
}
