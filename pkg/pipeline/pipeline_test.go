package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

const usageCSV = `session_id,patient_id,device_id,usage_date,total_steps,distance_meters,active_time_minutes,battery_usage_percent,error_count
SESS00001,PAT0001,DEV001,2024-03-01,1000,600,10,15,0
SESS00002,PAT0002,DEV002,2024-03-02,-50,480,30,20,1
SESS00003,PAT0001,DEV001,2019-06-15,2000,1200,25,18,0
SESS00004,PAT0003,DEV003,2024-03-04,0,0,0,50,3
`

const outcomesJSON = `[
  {"patient_id": "PAT0001", "assessment_date": "2024-02-01", "facility_id": "FAC001",
   "gmfcs_level": 2, "walking_independence_score": 70, "baseline_walking_score": 45,
   "mobility_score": 65, "quality_of_life_score": 72, "assessment_type": "Follow-Up"},
  {"patient_id": "PAT0002", "assessment_date": "2024-02-02", "facility_id": "FAC001",
   "gmfcs_level": 7, "walking_independence_score": 50,
   "mobility_score": 55, "quality_of_life_score": 60, "assessment_type": "baseline"}
]`

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("data/usage.csv"))
	assert.Equal(t, FormatCSV, DetectFormat("data/usage.CSV.gz"))
	assert.Equal(t, FormatJSON, DetectFormat("outcomes.json"))
	assert.Equal(t, FormatUnknown, DetectFormat("notes.txt"))
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope.csv"), KindDeviceUsage)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Path, "nope.csv")
}

func TestExtractSchemaMismatch(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "bad.csv", "session_id,total_steps\nSESS00001,100\n")
	_, err := Extract(path, KindDeviceUsage)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "usage_date")
}

func TestExtractUnsupportedType(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "notes.txt", "hello")
	_, err := Extract(path, KindDeviceUsage)
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
}

func extractUsage(t *testing.T) *tbl.Table {
	t.Helper()
	path := writeFixture(t, t.TempDir(), "usage.csv", usageCSV)
	got, err := Extract(path, KindDeviceUsage)
	require.NoError(t, err)
	return got
}

func TestTransformDeviceUsage(t *testing.T) {
	out, err := Transform(context.Background(), "device_usage", KindDeviceUsage, extractUsage(t))
	require.NoError(t, err)

	// negative steps and the pre-2020 date are dropped
	assert.Equal(t, 2, out.Rows())

	speeds := map[string]float64{}
	quality := map[string]float64{}
	for r := 0; r < out.Rows(); r++ {
		id, _ := out.Value(r, "session_id")
		v, _ := out.Value(r, "average_speed_kmh")
		speeds[id.(string)] = v.(float64)
		q, _ := out.Value(r, "data_quality_score")
		quality[id.(string)] = q.(float64)
	}
	assert.InDelta(t, 3.6, speeds["SESS00001"], 1e-9)
	assert.InDelta(t, 1.0, quality["SESS00001"], 1e-9)
	assert.Zero(t, speeds["SESS00004"], "zero minutes never divides")
	assert.InDelta(t, 0.2, quality["SESS00004"], 1e-9, "only the battery condition holds")

	col, ok := out.ColumnByName("usage_date")
	require.True(t, ok)
	assert.Equal(t, tbl.KindDate, col.Kind())
}

func TestTransformIdempotent(t *testing.T) {
	ctx := context.Background()
	once, err := Transform(ctx, "device_usage", KindDeviceUsage, extractUsage(t))
	require.NoError(t, err)
	twice, err := Transform(ctx, "device_usage", KindDeviceUsage, once)
	require.NoError(t, err)

	assert.Equal(t, once.Rows(), twice.Rows(), "re-applying rules must not lose rows")
	assert.Equal(t, once.Cols(), twice.Cols())
	for r := 0; r < once.Rows(); r++ {
		a, _ := once.Value(r, "average_speed_kmh")
		b, _ := twice.Value(r, "average_speed_kmh")
		assert.Equal(t, a, b)
	}
}

func TestTransformPatientOutcomes(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "outcomes.json", outcomesJSON)
	in, err := Extract(path, KindPatientOutcomes)
	require.NoError(t, err)

	out, err := Transform(context.Background(), "patient_outcomes", KindPatientOutcomes, in)
	require.NoError(t, err)

	// gmfcs_level 7 is out of range
	require.Equal(t, 1, out.Rows())

	_, ok := out.ColumnByName("patient_id")
	assert.False(t, ok, "raw id must not survive")
	v, ok := out.Value(0, "anonymized_id")
	require.True(t, ok)
	assert.Len(t, v.(string), 16)

	v, ok = out.Value(0, "assessment_type")
	require.True(t, ok)
	assert.Equal(t, "followup", v)

	v, ok = out.Value(0, "walking_improvement")
	require.True(t, ok)
	assert.InDelta(t, 25.0, v.(float64), 1e-9)
}

func TestTransformKindMismatch(t *testing.T) {
	tb := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "session_id", Type: tbl.KindString, Nullable: true},
		{Name: "total_steps", Type: tbl.KindString, Nullable: true},
	}})
	_, err := Transform(context.Background(), "device_usage", KindDeviceUsage, tb)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total_steps", verr.Column)
}

func TestLoaderWritesArtifacts(t *testing.T) {
	outDir := t.TempDir()
	out, err := Transform(context.Background(), "device_usage", KindDeviceUsage, extractUsage(t))
	require.NoError(t, err)

	l := &Loader{OutputDir: outDir}
	summary, err := l.Load(context.Background(), out, "device_usage")
	require.NoError(t, err)
	assert.Equal(t, "device_usage", summary.TableName)
	assert.Equal(t, 2, summary.RecordCount)
	require.NotNil(t, summary.DateRange)
	assert.Equal(t, "2024-03-01", summary.DateRange.Min)
	assert.Equal(t, "2024-03-04", summary.DateRange.Max)

	raw, err := os.ReadFile(filepath.Join(outDir, "device_usage_summary.json"))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"table_name", "record_count", "columns", "date_range", "processed_at"} {
		assert.Contains(t, m, key)
	}

	_, err = os.Stat(filepath.Join(outDir, "device_usage_processed.csv"))
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no stray staging files")
}

func TestLoaderOverwrites(t *testing.T) {
	outDir := t.TempDir()
	out, err := Transform(context.Background(), "device_usage", KindDeviceUsage, extractUsage(t))
	require.NoError(t, err)

	l := &Loader{OutputDir: outDir}
	_, err = l.Load(context.Background(), out, "device_usage")
	require.NoError(t, err)

	shrunk := out.Filter([]bool{true, false})
	summary, err := l.Load(context.Background(), shrunk, "device_usage")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecordCount)

	raw, err := os.ReadFile(filepath.Join(outDir, "device_usage_summary.json"))
	require.NoError(t, err)
	var back RunSummary
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, 1, back.RecordCount, "re-running replaces prior output")
}

func TestSummarizeEmptyTable(t *testing.T) {
	tb := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "usage_date", Type: tbl.KindDate, Nullable: true},
	}})
	s := Summarize(tb, "empty")
	assert.Zero(t, s.RecordCount)
	assert.Nil(t, s.DateRange)
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date_range":null`)
}

func TestOrchestratorIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	usage := writeFixture(t, dir, "usage.csv", usageCSV)
	broken := writeFixture(t, dir, "broken.csv", "session_id\nSESS00001\n")
	notes := writeFixture(t, dir, "notes.txt", "not a dataset")

	o := NewOrchestrator(&Loader{OutputDir: filepath.Join(dir, "out")})
	results, err := o.Run(context.Background(), map[string]Source{
		"device_usage": {Path: usage, Kind: KindDeviceUsage},
		"broken":       {Path: broken, Kind: KindDeviceUsage},
		"missing":      {Path: filepath.Join(dir, "gone.csv"), Kind: KindDeviceUsage},
		"notes":        {Path: notes, Kind: KindPassthrough},
	})
	require.NoError(t, err, "per-dataset failures must not abort the run")

	assert.Equal(t, StateLoaded, results["device_usage"].State)
	require.NotNil(t, results["device_usage"].Summary)
	assert.Equal(t, StateFailed, results["broken"].State)
	assert.Equal(t, StateFailed, results["missing"].State)
	var xerr *ExtractionError
	assert.True(t, errors.As(results["broken"].Err, &xerr))
	assert.True(t, errors.As(results["missing"].Err, &xerr))
	assert.Equal(t, StateSkipped, results["notes"].State)
}

func TestOrchestratorNoSources(t *testing.T) {
	o := NewOrchestrator(&Loader{OutputDir: t.TempDir()})
	_, err := o.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestResultJSON(t *testing.T) {
	raw, err := json.Marshal(Result{State: StateFailed, Err: errors.New("boom")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(raw))

	raw, err = json.Marshal(Result{State: StateSkipped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"skipped":"unsupported file type"}`, string(raw))
}
