package jsonio

import (
	"encoding/json"
	"io"

	iox "github.com/rehabmetrics/gaitetl/pkg/io/ioutils"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

// Write renders a table as a JSON array of objects. Null cells are omitted
// from their row's object; dates are formatted as YYYY-MM-DD.
func Write(w io.Writer, t *tbl.Table) error {
	rows := make([]map[string]any, 0, t.Rows())
	for r := 0; r < t.Rows(); r++ {
		m := make(map[string]any, t.Cols())
		for _, cs := range t.Schema().Columns {
			v, ok := t.Value(r, cs.Name)
			if !ok {
				continue
			}
			if cs.Type == tbl.KindDate {
				col, _ := t.ColumnByName(cs.Name)
				d, _ := col.(*tbl.DateColumn).Get(r)
				v = d.Format(tbl.DateFormat)
			}
			m[cs.Name] = v
		}
		rows = append(rows, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteFile writes a table to a JSON file path.
func WriteFile(path string, t *tbl.Table) error {
	out, err := iox.Create(path)
	if err != nil {
		return err
	}
	if err := Write(out, t); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
