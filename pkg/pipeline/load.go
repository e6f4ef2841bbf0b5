package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rehabmetrics/gaitetl/pkg/io/csvio"
	"github.com/rehabmetrics/gaitetl/pkg/io/parquetio"
	"github.com/rehabmetrics/gaitetl/pkg/profile"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
	"github.com/rehabmetrics/gaitetl/pkg/warehouse"
)

// DateBounds is the min/max projection over the date-bearing and string
// columns of a loaded dataset.
type DateBounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// RunSummary is the immutable audit artifact describing one dataset's load.
type RunSummary struct {
	TableName   string      `json:"table_name"`
	RecordCount int         `json:"record_count"`
	Columns     []string    `json:"columns"`
	DateRange   *DateBounds `json:"date_range"`
	ProcessedAt time.Time   `json:"processed_at"`
}

// Loader persists a transformed table and its run summary. A dataset is
// either fully loaded (data and summary both present) or not loaded at all.
type Loader struct {
	OutputDir string
	Warehouse *warehouse.DB // optional sink for the reporting facade
	Parquet   bool          // also write a parquet copy of the data
}

// Load writes `<name>_processed.csv` and `<name>_summary.json` under
// OutputDir, plus the optional parquet and warehouse copies. Artifacts are
// staged as temporary files and renamed only once every write succeeded.
func (l *Loader) Load(ctx context.Context, t *tbl.Table, name string) (*RunSummary, error) {
	summary := Summarize(t, name)
	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}

	if err := os.MkdirAll(l.OutputDir, 0o755); err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}

	dataPath := filepath.Join(l.OutputDir, name+"_processed.csv")
	summaryPath := filepath.Join(l.OutputDir, name+"_summary.json")

	staged := newStaging()
	defer staged.discard()

	dataTmp, err := staged.file(dataPath)
	if err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}
	if err := csvio.WriteFile(dataTmp, t, csvio.WriterOptions{}); err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}

	summaryTmp, err := staged.file(summaryPath)
	if err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}
	if err := os.WriteFile(summaryTmp, summaryJSON, 0o644); err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}

	if l.Parquet {
		parquetPath := filepath.Join(l.OutputDir, name+"_processed.parquet")
		parquetTmp, err := staged.file(parquetPath)
		if err != nil {
			return nil, &LoadError{Dataset: name, Err: err}
		}
		if err := parquetio.WriteFile(parquetTmp, t); err != nil {
			return nil, &LoadError{Dataset: name, Err: err}
		}
	}

	if l.Warehouse != nil {
		runID, _ := ctx.Value(runIDKey{}).(string)
		if err := l.Warehouse.Store(ctx, runID, name, t, summaryJSON, summary.ProcessedAt); err != nil {
			return nil, &LoadError{Dataset: name, Err: err}
		}
	}

	if err := staged.commit(); err != nil {
		return nil, &LoadError{Dataset: name, Err: err}
	}

	slog.Info("loaded records",
		slog.String("table", name),
		slog.Int("records", summary.RecordCount),
		slog.String("path", dataPath))
	return summary, nil
}

// Summarize builds the run summary for a table without persisting anything.
func Summarize(t *tbl.Table, name string) *RunSummary {
	s := &RunSummary{
		TableName:   name,
		RecordCount: t.Rows(),
		Columns:     t.Schema().Names(),
		ProcessedAt: time.Now().UTC(),
	}
	if t.Rows() == 0 {
		return s
	}
	var bounds *DateBounds
	for _, cp := range profile.Collect(t) {
		var lo, hi string
		switch {
		case cp.Date != nil && cp.Date.Count > 0:
			lo, hi = cp.Date.Min, cp.Date.Max
		case cp.Str != nil && cp.Str.Count > 0 && strings.Contains(cp.Name, "date"):
			lo, hi = cp.Str.Min, cp.Str.Max
		default:
			continue
		}
		if bounds == nil {
			bounds = &DateBounds{Min: lo, Max: hi}
			continue
		}
		if lo < bounds.Min {
			bounds.Min = lo
		}
		if hi > bounds.Max {
			bounds.Max = hi
		}
	}
	s.DateRange = bounds
	return s
}

// staging tracks temporary artifacts so a failed load leaves nothing
// half-written behind.
type staging struct {
	renames map[string]string // tmp -> final
	order   []string
}

func newStaging() *staging {
	return &staging{renames: make(map[string]string)}
}

func (s *staging) file(finalPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(finalPath), "."+filepath.Base(finalPath)+".tmp*")
	if err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	s.renames[tmp.Name()] = finalPath
	s.order = append(s.order, tmp.Name())
	return tmp.Name(), nil
}

func (s *staging) commit() error {
	done := make([]string, 0, len(s.order))
	for _, tmp := range s.order {
		final := s.renames[tmp]
		if err := os.Rename(tmp, final); err != nil {
			// roll back already-promoted artifacts
			for _, f := range done {
				_ = os.Remove(f)
			}
			return fmt.Errorf("promote %s: %w", final, err)
		}
		done = append(done, final)
		delete(s.renames, tmp)
	}
	s.order = nil
	return nil
}

func (s *staging) discard() {
	for tmp := range s.renames {
		_ = os.Remove(tmp)
	}
}
