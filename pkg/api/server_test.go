package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
	"github.com/rehabmetrics/gaitetl/pkg/warehouse"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := warehouse.Open(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	usage := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "session_id", Type: tbl.KindString, Nullable: true},
		{Name: "patient_id", Type: tbl.KindString, Nullable: true},
		{Name: "device_id", Type: tbl.KindString, Nullable: true},
		{Name: "usage_date", Type: tbl.KindString, Nullable: true},
		{Name: "total_steps", Type: tbl.KindInt, Nullable: true},
		{Name: "distance_meters", Type: tbl.KindFloat, Nullable: true},
		{Name: "active_time_minutes", Type: tbl.KindInt, Nullable: true},
		{Name: "error_count", Type: tbl.KindInt, Nullable: true},
	}})
	usage.AppendNullRow()
	require.NoError(t, usage.SetCell(0, "session_id", "SESS00001"))
	require.NoError(t, usage.SetCell(0, "patient_id", "PAT0001"))
	require.NoError(t, usage.SetCell(0, "device_id", "DEV001"))
	require.NoError(t, usage.SetCell(0, "usage_date", "2024-03-01"))
	require.NoError(t, usage.SetCell(0, "total_steps", int64(1000)))
	require.NoError(t, usage.SetCell(0, "distance_meters", 600.0))
	require.NoError(t, usage.SetCell(0, "active_time_minutes", int64(10)))
	require.NoError(t, usage.SetCell(0, "error_count", int64(0)))
	require.NoError(t, db.Store(ctx, "run-1", "device_usage", usage, []byte(`{}`), time.Now().UTC()))

	outcomes := tbl.New(tbl.Schema{Columns: []tbl.ColumnSchema{
		{Name: "anonymized_id", Type: tbl.KindString, Nullable: true},
		{Name: "walking_independence_score", Type: tbl.KindFloat, Nullable: true},
		{Name: "walking_improvement", Type: tbl.KindFloat, Nullable: true},
	}})
	outcomes.AppendNullRow()
	require.NoError(t, outcomes.SetCell(0, "anonymized_id", "aaaa"))
	require.NoError(t, outcomes.SetCell(0, "walking_independence_score", 85.0))
	require.NoError(t, outcomes.SetCell(0, "walking_improvement", 20.0))
	require.NoError(t, db.Store(ctx, "run-1", "patient_outcomes", outcomes, []byte(`{}`), time.Now().UTC()))

	srv := NewServer(db, "secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, header http.Header) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthIsOpen(t *testing.T) {
	ts := newTestServer(t)
	code, body := getJSON(t, ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestMissingKeyRejected(t *testing.T) {
	ts := newTestServer(t)
	code, body := getJSON(t, ts.URL+"/api/device-usage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "error")
}

func TestWrongKeyRejected(t *testing.T) {
	ts := newTestServer(t)
	code, _ := getJSON(t, ts.URL+"/api/device-usage", http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestKeyViaHeader(t *testing.T) {
	ts := newTestServer(t)
	code, body := getJSON(t, ts.URL+"/api/device-usage", http.Header{"X-Api-Key": {"secret"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total_sessions"])
}

func TestKeyViaQueryParam(t *testing.T) {
	ts := newTestServer(t)
	code, body := getJSON(t, ts.URL+"/api/patient-outcomes?api_key=secret", nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total_patients"])
}

func TestDashboardSummary(t *testing.T) {
	ts := newTestServer(t)
	code, body := getJSON(t, ts.URL+"/api/dashboard-summary", http.Header{"X-Api-Key": {"secret"}})
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	for _, key := range []string{"device_usage", "patient_outcomes", "device_reliability", "timestamp"} {
		assert.Contains(t, data, key)
	}
}
