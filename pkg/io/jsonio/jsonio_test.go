package jsonio

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

const outcomesJSON = `[
  {"patient_id": "PAT0001", "walking_independence_score": 72.5, "gmfcs_level": 2, "followup": true},
  {"patient_id": "PAT0002", "walking_independence_score": 48.0, "gmfcs_level": 4, "followup": false},
  {"patient_id": "PAT0003", "gmfcs_level": 3, "followup": true}
]`

func TestReadArray(t *testing.T) {
	got, err := ReadFrom(strings.NewReader(outcomesJSON), ReaderOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, got.Rows())
	want := map[string]tbl.Kind{
		"patient_id":                 tbl.KindString,
		"walking_independence_score": tbl.KindFloat,
		"gmfcs_level":                tbl.KindInt,
		"followup":                   tbl.KindBool,
	}
	for name, kind := range want {
		col, ok := got.ColumnByName(name)
		require.True(t, ok, "column %s missing", name)
		assert.Equal(t, kind, col.Kind(), "column %s", name)
	}

	v, ok := got.Value(0, "walking_independence_score")
	require.True(t, ok)
	assert.Equal(t, 72.5, v)

	_, ok = got.Value(2, "walking_independence_score")
	assert.False(t, ok, "absent field must read back as null")
}

func TestReadEmbeddedRecords(t *testing.T) {
	doc := `{"generated_at": "2024-03-01", "assessments": [
	  {"patient_id": "PAT0001", "score": 10},
	  {"patient_id": "PAT0002", "score": 20}
	]}`
	got, err := ReadFrom(strings.NewReader(doc), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rows())
	_, ok := got.ColumnByName("patient_id")
	assert.True(t, ok)
	_, ok = got.ColumnByName("generated_at")
	assert.False(t, ok, "the envelope is not part of the rows")
}

func TestReadObjectFlattens(t *testing.T) {
	doc := `{"device": {"id": "DEV001", "battery": 87.5}, "active": true}`
	got, err := ReadFrom(strings.NewReader(doc), ReaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Rows())

	v, ok := got.Value(0, "device.id")
	require.True(t, ok)
	assert.Equal(t, "DEV001", v)
	v, ok = got.Value(0, "device.battery")
	require.True(t, ok)
	assert.Equal(t, 87.5, v)
}

func TestReadRejectsScalars(t *testing.T) {
	_, err := ReadFrom(strings.NewReader(`42`), ReaderOptions{})
	require.Error(t, err)
	_, err = ReadFrom(strings.NewReader(``), ReaderOptions{})
	require.Error(t, err)
}

func TestWriteOmitsNulls(t *testing.T) {
	in, err := ReadFrom(strings.NewReader(outcomesJSON), ReaderOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	var back []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 3)
	assert.Equal(t, "PAT0001", back[0]["patient_id"])
	_, present := back[2]["walking_independence_score"]
	assert.False(t, present, "null cells stay out of the output")
}
