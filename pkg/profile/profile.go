// Package profile computes per-column statistics over a table. The loader
// uses it for run-summary projections; it is also handy for ad-hoc
// inspection of extracted datasets.
package profile

import (
	"math"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type NumStats struct {
	Count int
	Nulls int
	Min   float64
	Max   float64
	Sum   float64
}

type StringStats struct {
	Count int
	Nulls int
	Min   string
	Max   string
}

type DateStats struct {
	Count int
	Nulls int
	Min   string // YYYY-MM-DD
	Max   string
}

type ColumnProfile struct {
	Name string
	Kind tbl.Kind
	Num  *NumStats
	Str  *StringStats
	Date *DateStats
}

// Collect profiles every column of a table in one pass.
func Collect(t *tbl.Table) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, t.Cols())
	for _, cs := range t.Schema().Columns {
		col, _ := t.ColumnByName(cs.Name)
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type}
		switch c := col.(type) {
		case *tbl.FloatColumn:
			cp.Num = collectNum(c.Len(), func(i int) (float64, bool) { return c.Get(i) })
		case *tbl.IntColumn:
			cp.Num = collectNum(c.Len(), func(i int) (float64, bool) {
				v, ok := c.Get(i)
				return float64(v), ok
			})
		case *tbl.StringColumn:
			st := &StringStats{}
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Get(i)
				if !ok {
					st.Nulls++
					continue
				}
				if st.Count == 0 || v < st.Min {
					st.Min = v
				}
				if st.Count == 0 || v > st.Max {
					st.Max = v
				}
				st.Count++
			}
			cp.Str = st
		case *tbl.DateColumn:
			st := &DateStats{}
			for i := 0; i < c.Len(); i++ {
				v, ok := c.Get(i)
				if !ok {
					st.Nulls++
					continue
				}
				s := v.Format(tbl.DateFormat)
				if st.Count == 0 || s < st.Min {
					st.Min = s
				}
				if st.Count == 0 || s > st.Max {
					st.Max = s
				}
				st.Count++
			}
			cp.Date = st
		}
		profiles = append(profiles, cp)
	}
	return profiles
}

func collectNum(n int, get func(int) (float64, bool)) *NumStats {
	st := &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
	for i := 0; i < n; i++ {
		v, ok := get(i)
		if !ok {
			st.Nulls++
			continue
		}
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		st.Sum += v
		st.Count++
	}
	return st
}
