package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	iox "github.com/rehabmetrics/gaitetl/pkg/io/ioutils"
	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// Write writes a table with a header row.
func Write(w io.Writer, t *tbl.Table, opt WriterOptions) error {
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}

	hdr := t.Schema().Names()
	if err := cw.Write(hdr); err != nil {
		return err
	}

	for r := 0; r < t.Rows(); r++ {
		row := make([]string, len(hdr))
		for c, cs := range t.Schema().Columns {
			col, _ := t.ColumnByName(cs.Name)
			switch cs.Type {
			case tbl.KindFloat:
				if v, ok := col.(*tbl.FloatColumn).Get(r); ok {
					row[c] = strconv.FormatFloat(v, 'g', -1, 64)
				}
			case tbl.KindInt:
				if v, ok := col.(*tbl.IntColumn).Get(r); ok {
					row[c] = strconv.FormatInt(v, 10)
				}
			case tbl.KindBool:
				if v, ok := col.(*tbl.BoolColumn).Get(r); ok {
					row[c] = strconv.FormatBool(v)
				}
			case tbl.KindString:
				if v, ok := col.(*tbl.StringColumn).Get(r); ok {
					row[c] = v
				}
			case tbl.KindDate:
				if v, ok := col.(*tbl.DateColumn).Get(r); ok {
					row[c] = v.Format(tbl.DateFormat)
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes a table to a file path (gzip when the path ends in .gz).
func WriteFile(path string, t *tbl.Table, opt WriterOptions) error {
	out, err := iox.Create(path)
	if err != nil {
		return err
	}
	if err := Write(out, t, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
