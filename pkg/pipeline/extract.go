package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rehabmetrics/gaitetl/pkg/io/csvio"
	"github.com/rehabmetrics/gaitetl/pkg/io/jsonio"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// Format selects the extractor for a source file.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSON
)

// DetectFormat maps a file extension to an extraction format.
func DetectFormat(path string) Format {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	}
	return FormatUnknown
}

// Extract reads a source file into a table and checks the result against
// the dataset kind's declared schema. All failures come back as
// *ExtractionError.
func Extract(path string, kind DatasetKind) (*tbl.Table, error) {
	var (
		t   *tbl.Table
		err error
	)
	switch DetectFormat(path) {
	case FormatCSV:
		t, err = csvio.Read(path, csvio.ReaderOptions{})
	case FormatJSON:
		t, err = jsonio.Read(path, jsonio.ReaderOptions{})
	default:
		return nil, &ExtractionError{Path: path, Err: fmt.Errorf("unsupported file type")}
	}
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	if err := checkRequiredColumns(t.Schema(), kind); err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}
	slog.Info("extracted records", slog.String("path", path), slog.Int("records", t.Rows()))
	return t, nil
}

func checkRequiredColumns(s tbl.Schema, kind DatasetKind) error {
	rules, ok := ruleSets[kind]
	if !ok {
		return fmt.Errorf("unknown dataset kind %q", kind)
	}
	var missing []string
	for _, req := range rules.required {
		if !s.HasColumn(req.name) {
			missing = append(missing, req.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema mismatch: missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}
