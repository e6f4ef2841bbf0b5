package derive

import (
	"context"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// QualityScore derives a weighted data-quality score in [0,1] for device
// usage rows:
//
//	0.3·[steps>0] + 0.3·[distance>0] + 0.2·[battery∈[0,100]] + 0.2·[errors==0]
//
// A missing or null input counts as a failed condition.
type QualityScore struct {
	StepsColumn    string
	DistanceColumn string
	BatteryColumn  string
	ErrorsColumn   string
	OutColumn      string
}

func (t *QualityScore) Name() string { return "derive_quality_score" }

func (t *QualityScore) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	out := withFloatColumn(in, t.OutColumn)
	for r := 0; r < out.Rows(); r++ {
		score := 0.0
		if v, ok := numAt(out, t.StepsColumn, r); ok && v > 0 {
			score += 0.3
		}
		if v, ok := numAt(out, t.DistanceColumn, r); ok && v > 0 {
			score += 0.3
		}
		if v, ok := numAt(out, t.BatteryColumn, r); ok && v >= 0 && v <= 100 {
			score += 0.2
		}
		if v, ok := numAt(out, t.ErrorsColumn, r); ok && v == 0 {
			score += 0.2
		}
		_ = out.SetCell(r, t.OutColumn, score)
	}
	return out, nil
}
