package parquetio

import (
	"encoding/json"
	"fmt"

	local "github.com/xitongsys/parquet-go-source/local"
	pw "github.com/xitongsys/parquet-go/writer"

	tbl "github.com/rehabmetrics/gaitetl/pkg/table"
)

func parquetSchemaJSON(s tbl.Schema) string {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case tbl.KindFloat:
			tag += "DOUBLE"
		case tbl.KindInt:
			tag += "INT64"
		case tbl.KindBool:
			tag += "BOOLEAN"
		default:
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, _ := json.Marshal(sc)
	return string(b)
}

// WriteFile writes a table to a Parquet file.
func WriteFile(path string, t *tbl.Table) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	writer, err := pw.NewJSONWriter(parquetSchemaJSON(t.Schema()), fw, 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for r := 0; r < t.Rows(); r++ {
		rec := make(map[string]any, t.Cols())
		for _, cs := range t.Schema().Columns {
			col, _ := t.ColumnByName(cs.Name)
			switch cs.Type {
			case tbl.KindFloat:
				if v, ok := col.(*tbl.FloatColumn).Get(r); ok {
					rec[cs.Name] = v
				}
			case tbl.KindInt:
				if v, ok := col.(*tbl.IntColumn).Get(r); ok {
					rec[cs.Name] = v
				}
			case tbl.KindBool:
				if v, ok := col.(*tbl.BoolColumn).Get(r); ok {
					rec[cs.Name] = v
				}
			case tbl.KindString:
				if v, ok := col.(*tbl.StringColumn).Get(r); ok {
					rec[cs.Name] = v
				}
			case tbl.KindDate:
				if v, ok := col.(*tbl.DateColumn).Get(r); ok {
					rec[cs.Name] = v.Format(tbl.DateFormat)
				}
			}
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	if err := writer.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return nil
}
