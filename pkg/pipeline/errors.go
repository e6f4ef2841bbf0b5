package pipeline

import "fmt"

// ExtractionError reports a source file that is missing, unreadable,
// structurally malformed, or that does not satisfy the dataset kind's
// declared schema. It is fatal to the dataset and never retried.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.Path, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError reports a systemic schema mismatch discovered at
// transform time: a bounded column exists but holds a kind that cannot be
// range-checked at all. Row-level violations are not errors; those rows are
// simply dropped.
type ValidationError struct {
	Dataset string
	Column  string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: column %s: %s", e.Dataset, e.Column, e.Reason)
}

// LoadError reports a sink that could not be written. A failed load leaves
// no partial artifacts behind.
type LoadError struct {
	Dataset string
	Err     error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Dataset, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }
