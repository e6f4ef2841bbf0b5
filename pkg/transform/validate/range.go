// Package validate holds row-filtering rules. Every rule returns a new
// table containing only conforming rows; rules never mutate their input.
// A rule whose column is absent from the table is a no-op.
package validate

import (
	"context"
	"log/slog"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// Range drops rows whose numeric value falls outside the closed interval
// [Min, Max]. Null cells in the bounded column are dropped as well since
// they cannot be range-checked.
type Range struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Range) Name() string { return "validate_range" }

func (t *Range) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	col, ok := in.ColumnByName(t.Column)
	if !ok {
		return in, nil
	}
	keep := make([]bool, in.Rows())
	for i := range keep {
		keep[i] = true
	}
	check := func(i int, v float64) {
		if t.Min != nil && v < *t.Min {
			keep[i] = false
		}
		if t.Max != nil && v > *t.Max {
			keep[i] = false
		}
	}
	switch c := col.(type) {
	case *tbl.FloatColumn:
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				keep[i] = false
				continue
			}
			check(i, v)
		}
	case *tbl.IntColumn:
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				keep[i] = false
				continue
			}
			check(i, float64(v))
		}
	default:
		return in, nil
	}
	out := in.Filter(keep)
	logCounts(t.Name(), t.Column, in.Rows(), out.Rows())
	return out, nil
}

func logCounts(rule, column string, in, out int) {
	slog.Info("validated records",
		slog.String("rule", rule),
		slog.String("column", column),
		slog.Int("in", in),
		slog.Int("out", out))
}
