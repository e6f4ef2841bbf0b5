package parquetio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

func TestWriteFile(t *testing.T) {
	tb := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "session_id", Type: tbl.KindString, Nullable: true},
		{Name: "total_steps", Type: tbl.KindInt, Nullable: true},
		{Name: "average_speed_kmh", Type: tbl.KindFloat, Nullable: true},
		{Name: "usage_date", Type: tbl.KindDate, Nullable: true},
	}})
	tb.AppendNullRow()
	require.NoError(t, tb.SetCell(0, "session_id", "SESS00001"))
	require.NoError(t, tb.SetCell(0, "total_steps", int64(1000)))
	require.NoError(t, tb.SetCell(0, "average_speed_kmh", 3.6))
	require.NoError(t, tb.SetCell(0, "usage_date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	tb.AppendNullRow() // all nulls, every field is optional

	path := filepath.Join(t.TempDir(), "usage.parquet")
	require.NoError(t, WriteFile(path, tb))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(raw), 8)
	assert.Equal(t, "PAR1", string(raw[:4]))
	assert.Equal(t, "PAR1", string(raw[len(raw)-4:]))
}
