package validate

import (
	"context"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// InSet drops rows whose string value is not in the allowed set.
type InSet struct {
	Column string
	Values map[string]struct{}
}

func NewInSet(col string, vals []string) *InSet {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return &InSet{Column: col, Values: m}
}

func (t *InSet) Name() string { return "validate_in" }

func (t *InSet) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	col, ok := in.ColumnByName(t.Column)
	if !ok {
		return in, nil
	}
	sc, ok := col.(*tbl.StringColumn)
	if !ok {
		return in, nil
	}
	keep := make([]bool, in.Rows())
	for i := 0; i < sc.Len(); i++ {
		v, ok := sc.Get(i)
		if !ok {
			continue
		}
		_, keep[i] = t.Values[v]
	}
	out := in.Filter(keep)
	logCounts(t.Name(), t.Column, in.Rows(), out.Rows())
	return out, nil
}
