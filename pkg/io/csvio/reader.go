package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	iox "github.com/rehabmetrics/gaitetl/pkg/io/ioutils"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type ReaderOptions struct {
	Delimiter  rune // default ','
	SampleRows int  // rows used for kind inference; default 100
}

// Read loads a delimited-text file into a table. The first line defines the
// column names; value kinds are inferred from a row sample (numeric columns
// parse as numbers, everything else stays string).
func Read(path string, opt ReaderOptions) (*tbl.Table, error) {
	rc, err := iox.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return ReadFrom(rc, opt)
}

// ReadFrom is Read over an arbitrary reader.
func ReadFrom(r io.Reader, opt ReaderOptions) (*tbl.Table, error) {
	cr := csv.NewReader(r)
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, len(header))
	for i := range header {
		names[i] = strings.ToValidUTF8(strings.TrimSpace(header[i]), "?")
	}
	if len(names) > 0 {
		names[0] = strings.TrimPrefix(names[0], "\ufeff")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	sample := records
	max := opt.SampleRows
	if max <= 0 {
		max = 100
	}
	if len(sample) > max {
		sample = sample[:max]
	}
	kinds := inferKinds(len(names), sample)

	schema := tbl.Schema{Columns: make([]tbl.ColumnSchema, len(names))}
	for i, name := range names {
		schema.Columns[i] = tbl.ColumnSchema{Name: name, Type: kinds[i], Nullable: true}
	}

	t := tbl.New(schema)
	for _, rec := range records {
		t.AppendNullRow()
		row := t.Rows() - 1
		for i, cs := range schema.Columns {
			if i >= len(rec) {
				continue
			}
			val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
			if val == "" {
				continue
			}
			switch cs.Type {
			case tbl.KindFloat:
				if x, err := strconv.ParseFloat(val, 64); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			case tbl.KindInt:
				if x, err := strconv.ParseInt(val, 10, 64); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			case tbl.KindBool:
				if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			default:
				_ = t.SetCell(row, cs.Name, val)
			}
		}
	}
	return t, nil
}

var numRe = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(ncol int, rows [][]string) []tbl.Kind {
	kinds := make([]tbl.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			switch {
			case numRe.MatchString(v):
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			case strings.EqualFold(v, "true") || strings.EqualFold(v, "false"):
				boolean++
			default:
				str++
			}
		}
		switch {
		case boolean > num && boolean > str:
			kinds[c] = tbl.KindBool
		case num > str:
			if integer == num {
				kinds[c] = tbl.KindInt
			} else {
				kinds[c] = tbl.KindFloat
			}
		default:
			kinds[c] = tbl.KindString
		}
	}
	return kinds
}
