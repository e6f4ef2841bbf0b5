package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// State tracks a dataset through the run.
type State string

const (
	StatePending     State = "pending"
	StateExtracted   State = "extracted"
	StateTransformed State = "transformed"
	StateLoaded      State = "loaded"
	StateFailed      State = "failed"
	StateSkipped     State = "skipped"
)

// Source names one input file and the rule set that applies to it.
type Source struct {
	Path string      `yaml:"path" toml:"path" json:"path"`
	Kind DatasetKind `yaml:"kind" toml:"kind" json:"kind"`
}

// Result is the terminal outcome for one dataset.
type Result struct {
	State   State
	Summary *RunSummary
	Err     error
}

// MarshalJSON renders the aggregate-result contract: a run summary on
// success, an error descriptor on failure, a skipped marker otherwise.
func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(map[string]string{"error": r.Err.Error()})
	case r.State == StateSkipped:
		return json.Marshal(map[string]string{"skipped": "unsupported file type"})
	default:
		return json.Marshal(r.Summary)
	}
}

type runIDKey struct{}

// Orchestrator sequences extract → transform → load per dataset. Failures
// are isolated: one bad dataset never aborts the rest of the run.
type Orchestrator struct {
	Loader *Loader
	RunID  string
}

func NewOrchestrator(loader *Loader) *Orchestrator {
	return &Orchestrator{Loader: loader, RunID: uuid.NewString()}
}

// Run processes every configured dataset and returns the per-dataset
// outcomes. The returned error is non-nil only when the run cannot start at
// all; per-dataset failures are reported inside the result map.
func (o *Orchestrator) Run(ctx context.Context, sources map[string]Source) (map[string]Result, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no datasets configured")
	}
	ctx = context.WithValue(ctx, runIDKey{}, o.RunID)
	log := slog.With(slog.String("run_id", o.RunID))
	log.Info("starting pipeline", slog.Int("datasets", len(sources)))

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]Result, len(sources))
	for _, name := range names {
		results[name] = o.runDataset(ctx, log, name, sources[name])
	}
	log.Info("pipeline completed")
	return results, nil
}

func (o *Orchestrator) runDataset(ctx context.Context, log *slog.Logger, name string, src Source) Result {
	state := StatePending
	log = log.With(slog.String("dataset", name))

	if DetectFormat(src.Path) == FormatUnknown {
		log.Warn("unsupported file type, skipping", slog.String("path", src.Path))
		return Result{State: StateSkipped}
	}

	fail := func(err error) Result {
		log.Error("dataset failed",
			slog.String("state", string(state)),
			slog.String("error", err.Error()))
		return Result{State: StateFailed, Err: err}
	}

	t, err := Extract(src.Path, src.Kind)
	if err != nil {
		return fail(err)
	}
	state = StateExtracted

	t, err = Transform(ctx, name, src.Kind, t)
	if err != nil {
		return fail(err)
	}
	state = StateTransformed

	summary, err := o.Loader.Load(ctx, t, name)
	if err != nil {
		return fail(err)
	}
	state = StateLoaded
	log.Info("dataset loaded", slog.Int("records", summary.RecordCount))
	return Result{State: state, Summary: summary}
}
