package standardize

import (
	"context"
	"strings"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// Trim strips surrounding whitespace from a string column. Identifier
// columns are trimmed before hashing so that "PAT0001 " and "PAT0001"
// anonymize identically.
type Trim struct{ Column string }

func (t *Trim) Name() string { return "trim" }

func (t *Trim) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	return mapString(in, t.Column, strings.TrimSpace), nil
}

// Lower lowercases a string column, normalizing categorical values before
// set membership checks.
type Lower struct{ Column string }

func (t *Lower) Name() string { return "lower" }

func (t *Lower) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	return mapString(in, t.Column, strings.ToLower), nil
}

// MapValues rewrites known value variants, e.g. legacy assessment labels.
type MapValues struct {
	Column string
	Map    map[string]string
}

func (t *MapValues) Name() string { return "map_values" }

func (t *MapValues) Apply(ctx context.Context, in *tbl.Table) (*tbl.Table, error) {
	out := mapString(in, t.Column, func(v string) string {
		if nv, ok := t.Map[v]; ok {
			return nv
		}
		return v
	})
	return out, nil
}

func mapString(in *tbl.Table, column string, fn func(string) string) *tbl.Table {
	col, ok := in.ColumnByName(column)
	if !ok {
		return in
	}
	if _, ok := col.(*tbl.StringColumn); !ok {
		return in
	}
	out := in.Clone()
	oc, _ := out.ColumnByName(column)
	c := oc.(*tbl.StringColumn)
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			c.Set(i, fn(v))
		}
	}
	return out
}
