package derive

import (
	"context"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// Delta derives the difference between a current and a baseline column in
// the same row (true longitudinal tracking would join baseline and final
// assessments by patient; same-row deltas match the warehouse contract).
// Rows missing either value get a null delta. The stage is a no-op when
// either column is absent from the schema.
type Delta struct {
	CurrentColumn  string
	BaselineColumn string
	OutColumn      string
}

func (t *Delta) Name() string { return "derive_delta" }

func (t *Delta) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	if !in.Schema().HasColumn(t.CurrentColumn) || !in.Schema().HasColumn(t.BaselineColumn) {
		return in, nil
	}
	out := withFloatColumn(in, t.OutColumn)
	for r := 0; r < out.Rows(); r++ {
		cur, okC := numAt(out, t.CurrentColumn, r)
		base, okB := numAt(out, t.BaselineColumn, r)
		if okC && okB {
			_ = out.SetCell(r, t.OutColumn, cur-base)
		}
	}
	return out, nil
}
