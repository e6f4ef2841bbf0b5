package standardize_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
	"github.com/rehabmetrics/gaitetl/pkg/transform/standardize"
)

func stringTable(t *testing.T, name string, values []string) *tbl.Table {
	t.Helper()
	tb := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: name, Type: tbl.KindString, Nullable: true},
	}})
	for i, v := range values {
		tb.AppendNullRow()
		require.NoError(t, tb.SetCell(i, name, v))
	}
	return tb
}

func TestParseDateConvertsColumn(t *testing.T) {
	in := stringTable(t, "usage_date", []string{"2024-03-01", "2023-12-31"})
	out, err := (&standardize.ParseDate{Column: "usage_date"}).Apply(context.Background(), in)
	require.NoError(t, err)

	col, ok := out.ColumnByName("usage_date")
	require.True(t, ok)
	assert.Equal(t, tbl.KindDate, col.Kind())
	v, present := col.(*tbl.DateColumn).Get(0)
	require.True(t, present)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestParseDateDropsMalformedRows(t *testing.T) {
	in := stringTable(t, "usage_date", []string{"2024-03-01", "03/01/2024", "oops"})
	out, err := (&standardize.ParseDate{Column: "usage_date"}).Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Rows())
	assert.Equal(t, 3, in.Rows(), "input must not be mutated")
}

func TestParseDateIdempotent(t *testing.T) {
	in := stringTable(t, "usage_date", []string{"2024-03-01"})
	step := &standardize.ParseDate{Column: "usage_date"}
	once, err := step.Apply(context.Background(), in)
	require.NoError(t, err)
	twice, err := step.Apply(context.Background(), once)
	require.NoError(t, err)
	assert.Same(t, once, twice, "a date column passes through untouched")
}

func TestParseDateKeepsNulls(t *testing.T) {
	in := stringTable(t, "usage_date", []string{"2024-03-01"})
	in.AppendNullRow()
	out, err := (&standardize.ParseDate{Column: "usage_date"}).Apply(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows(), "null dates are not malformed")
	col, _ := out.ColumnByName("usage_date")
	assert.True(t, col.IsNull(1))
}

func TestTrimAndLower(t *testing.T) {
	in := stringTable(t, "assessment_type", []string{"  Baseline ", "FOLLOWUP"})
	out, err := (&standardize.Trim{Column: "assessment_type"}).Apply(context.Background(), in)
	require.NoError(t, err)
	out, err = (&standardize.Lower{Column: "assessment_type"}).Apply(context.Background(), out)
	require.NoError(t, err)

	col, _ := out.ColumnByName("assessment_type")
	v, _ := col.(*tbl.StringColumn).Get(0)
	assert.Equal(t, "baseline", v)
	v, _ = col.(*tbl.StringColumn).Get(1)
	assert.Equal(t, "followup", v)

	orig, _ := in.ColumnByName("assessment_type")
	ov, _ := orig.(*tbl.StringColumn).Get(0)
	assert.Equal(t, "  Baseline ", ov, "input must not be mutated")
}

func TestMapValues(t *testing.T) {
	in := stringTable(t, "assessment_type", []string{"follow-up", "final"})
	step := &standardize.MapValues{Column: "assessment_type", Map: map[string]string{"follow-up": "followup"}}
	out, err := step.Apply(context.Background(), in)
	require.NoError(t, err)
	col, _ := out.ColumnByName("assessment_type")
	v, _ := col.(*tbl.StringColumn).Get(0)
	assert.Equal(t, "followup", v)
	v, _ = col.(*tbl.StringColumn).Get(1)
	assert.Equal(t, "final", v)
}
