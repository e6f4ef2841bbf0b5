package derive

import (
	"context"
	"math"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// AverageSpeed derives km/h from distance and active time. Division by zero
// and other non-finite results are recorded as 0 rather than dropping the
// row. The stage is a no-op when either input column is missing.
type AverageSpeed struct {
	DistanceColumn string // meters
	MinutesColumn  string
	OutColumn      string
}

func (t *AverageSpeed) Name() string { return "derive_average_speed" }

func (t *AverageSpeed) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	if !in.Schema().HasColumn(t.DistanceColumn) || !in.Schema().HasColumn(t.MinutesColumn) {
		return in, nil
	}
	out := withFloatColumn(in, t.OutColumn)
	for r := 0; r < out.Rows(); r++ {
		meters, okD := numAt(out, t.DistanceColumn, r)
		minutes, okM := numAt(out, t.MinutesColumn, r)
		speed := 0.0
		if okD && okM {
			v := (meters / 1000) / (minutes / 60)
			if !math.IsInf(v, 0) && !math.IsNaN(v) {
				speed = v
			}
		}
		_ = out.SetCell(r, t.OutColumn, speed)
	}
	return out, nil
}
