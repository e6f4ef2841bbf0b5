package validate

import (
	"context"
	"time"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// DateRange drops rows whose calendar date falls outside [Min, Max]. A zero
// Max means "today". String columns are parsed before comparison; a value
// that is not a date at all is dropped with the row.
type DateRange struct {
	Column string
	Min    time.Time
	Max    time.Time
}

func (t *DateRange) Name() string { return "validate_date_range" }

func (t *DateRange) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	col, ok := in.ColumnByName(t.Column)
	if !ok {
		return in, nil
	}
	max := t.Max
	if max.IsZero() {
		y, m, d := time.Now().UTC().Date()
		max = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	inRange := func(v time.Time) bool {
		return !v.Before(t.Min) && !v.After(max)
	}

	keep := make([]bool, in.Rows())
	switch c := col.(type) {
	case *tbl.DateColumn:
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Get(i); ok {
				keep[i] = inRange(v)
			}
		}
	case *tbl.StringColumn:
		for i := 0; i < c.Len(); i++ {
			s, ok := c.Get(i)
			if !ok {
				continue
			}
			v, err := time.ParseInLocation(tbl.DateFormat, s, time.UTC)
			if err != nil {
				continue
			}
			keep[i] = inRange(v)
		}
	default:
		return in, nil
	}
	out := in.Filter(keep)
	logCounts(t.Name(), t.Column, in.Rows(), out.Rows())
	return out, nil
}
