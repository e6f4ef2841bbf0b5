package jsonio

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	iox "github.com/rehabmetrics/gaitetl/pkg/io/ioutils"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type ReaderOptions struct {
	SampleRows int // rows used for kind inference; default 100
}

// Read loads a structured-text (JSON) document into a table.
//
// A top-level array yields one row per element. A top-level object yields
// the elements of its first list-of-records field when it has one, otherwise
// the object itself is flattened (nested keys joined with dots) into a
// single row.
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
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty input")
		}
		return nil, err
	}

	rows, err := rowsFromDocument(doc)
	if err != nil {
		return nil, err
	}

	keys := collectKeys(rows)
	sample := rows
	max := opt.SampleRows
	if max <= 0 {
		max = 100
	}
	if len(sample) > max {
		sample = sample[:max]
	}
	kinds := inferKinds(sample, keys)

	schema := tbl.Schema{Columns: make([]tbl.ColumnSchema, len(keys))}
	for i, k := range keys {
		schema.Columns[i] = tbl.ColumnSchema{Name: k, Type: kinds[i], Nullable: true}
	}

	t := tbl.New(schema)
	for _, m := range rows {
		t.AppendNullRow()
		setRowFromMap(t, t.Rows()-1, m)
	}
	return t, nil
}

func rowsFromDocument(doc any) ([]map[string]any, error) {
	switch v := doc.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for i, el := range v {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is not an object", i)
			}
			rows = append(rows, flatten("", m))
		}
		return rows, nil
	case map[string]any:
		// a single mapping holding a homogeneous list of records is treated
		// as the row source
		if rows, ok := embeddedRecords(v); ok {
			return rows, nil
		}
		return []map[string]any{flatten("", v)}, nil
	default:
		return nil, fmt.Errorf("top-level value must be an array or object")
	}
}

func embeddedRecords(m map[string]any) ([]map[string]any, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		list, ok := m[k].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		rows := make([]map[string]any, 0, len(list))
		homogeneous := true
		for _, el := range list {
			rm, ok := el.(map[string]any)
			if !ok {
				homogeneous = false
				break
			}
			rows = append(rows, flatten("", rm))
		}
		if homogeneous {
			return rows, true
		}
	}
	return nil, false
}

// flatten joins nested object keys into dotted column names.
func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(name, nested) {
				out[nk] = nv
			}
			continue
		}
		out[name] = v
	}
	return out
}

func collectKeys(rows []map[string]any) []string {
	set := map[string]struct{}{}
	for _, m := range rows {
		for k := range m {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setRowFromMap(t *tbl.Table, row int, m map[string]any) {
	for _, cs := range t.Schema().Columns {
		v, ok := m[cs.Name]
		if !ok || v == nil {
			continue
		}
		switch cs.Type {
		case tbl.KindFloat:
			if x, ok := asFloat(v); ok {
				_ = t.SetCell(row, cs.Name, x)
			}
		case tbl.KindInt:
			if x, ok := asInt(v); ok {
				_ = t.SetCell(row, cs.Name, x)
			}
		case tbl.KindBool:
			if b, ok := v.(bool); ok {
				_ = t.SetCell(row, cs.Name, b)
			}
		default:
			switch x := v.(type) {
			case string:
				_ = t.SetCell(row, cs.Name, x)
			case json.Number:
				_ = t.SetCell(row, cs.Name, x.String())
			default:
				b, _ := json.Marshal(x)
				_ = t.SetCell(row, cs.Name, string(b))
			}
		}
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		if f, err := x.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(x), true
	}
	return 0, false
}

func inferKinds(sample []map[string]any, keys []string) []tbl.Kind {
	kinds := make([]tbl.Kind, len(keys))
	for i, k := range keys {
		nInt, nFloat, nBool, nStr := 0, 0, 0, 0
		for _, m := range sample {
			v, ok := m[k]
			if !ok || v == nil {
				continue
			}
			switch x := v.(type) {
			case json.Number:
				if !strings.ContainsAny(x.String(), ".eE") {
					nInt++
				} else {
					nFloat++
				}
			case bool:
				nBool++
			default:
				nStr++
			}
		}
		switch {
		case nBool > 0 && nBool >= nInt+nFloat && nBool >= nStr:
			kinds[i] = tbl.KindBool
		case nInt+nFloat > nStr && nFloat > 0:
			kinds[i] = tbl.KindFloat
		case nInt+nFloat > nStr:
			kinds[i] = tbl.KindInt
		default:
			kinds[i] = tbl.KindString
		}
	}
	return kinds
}
