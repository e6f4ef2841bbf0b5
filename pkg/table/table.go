package table

import (
	"fmt"
	"time"
)

// Schema describes the logical shape of a record set.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// HasColumn reports whether the schema declares a column with the given name.
func (s Schema) HasColumn(name string) bool {
	for _, cs := range s.Columns {
		if cs.Name == name {
			return true
		}
	}
	return false
}

// Names returns the ordered column names.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	}
	return "invalid"
}

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
}

type BoolColumn struct {
	name  string
	data  []bool
	nulls []bool
}

func NewBoolColumn(name string, n int) *BoolColumn {
	return &BoolColumn{name: name, data: make([]bool, n), nulls: make([]bool, n)}
}
func (c *BoolColumn) Name() string           { return c.name }
func (c *BoolColumn) Kind() Kind             { return KindBool }
func (c *BoolColumn) Len() int               { return len(c.data) }
func (c *BoolColumn) IsNull(i int) bool      { return c.nulls[i] }
func (c *BoolColumn) SetNull(i int)          { c.nulls[i] = true }
func (c *BoolColumn) Get(i int) (bool, bool) { return c.data[i], !c.nulls[i] }
func (c *BoolColumn) Set(i int, v bool)      { c.data[i] = v; c.nulls[i] = false }
func (c *BoolColumn) AppendNull()            { c.data = append(c.data, false); c.nulls = append(c.nulls, true) }
func (c *BoolColumn) Append(v bool)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

// DateColumn stores calendar dates. Values are normalized to midnight UTC.
type DateColumn struct {
	name  string
	data  []time.Time
	nulls []bool
}

func NewDateColumn(name string, n int) *DateColumn {
	return &DateColumn{name: name, data: make([]time.Time, n), nulls: make([]bool, n)}
}
func (c *DateColumn) Name() string                { return c.name }
func (c *DateColumn) Kind() Kind                  { return KindDate }
func (c *DateColumn) Len() int                    { return len(c.data) }
func (c *DateColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *DateColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *DateColumn) Get(i int) (time.Time, bool) { return c.data[i], !c.nulls[i] }
func (c *DateColumn) Set(i int, v time.Time)      { c.data[i] = truncateDate(v); c.nulls[i] = false }
func (c *DateColumn) AppendNull() {
	c.data = append(c.data, time.Time{})
	c.nulls = append(c.nulls, true)
}
func (c *DateColumn) Append(v time.Time) {
	c.data = append(c.data, truncateDate(v))
	c.nulls = append(c.nulls, false)
}

func truncateDate(v time.Time) time.Time {
	y, m, d := v.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newColumn(cs ColumnSchema) Column {
	switch cs.Type {
	case KindBool:
		return NewBoolColumn(cs.Name, 0)
	case KindInt:
		return NewIntColumn(cs.Name, 0)
	case KindFloat:
		return NewFloatColumn(cs.Name, 0)
	case KindString:
		return NewStringColumn(cs.Name, 0)
	case KindDate:
		return NewDateColumn(cs.Name, 0)
	}
	panic("invalid column kind")
}

// Table is a columnar record set. Transform stages treat tables as
// immutable: they build a new Table rather than updating one in place.
type Table struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func New(s Schema) *Table {
	t := &Table{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		t.cols[i] = newColumn(cs)
		t.index[cs.Name] = i
	}
	return t
}

func (t *Table) Schema() Schema { return t.schema }
func (t *Table) Rows() int      { return t.nrows }
func (t *Table) Cols() int      { return len(t.cols) }

func (t *Table) ColumnByName(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// AppendNullRow appends a row with all-null values.
func (t *Table) AppendNullRow() {
	for _, c := range t.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		case *DateColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	t.nrows++
}

// SetCell sets a single cell value by name (row must exist).
func (t *Table) SetCell(row int, name string, v any) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	c := t.cols[i]
	switch col := c.(type) {
	case *BoolColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch x := v.(type) {
		case int:
			col.Set(row, int64(x))
		case int64:
			col.Set(row, x)
		case float64:
			col.Set(row, int64(x))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch x := v.(type) {
		case float32:
			col.Set(row, float64(x))
		case float64:
			col.Set(row, x)
		case int:
			col.Set(row, float64(x))
		case int64:
			col.Set(row, float64(x))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	case *DateColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		d, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %s expects time.Time", name)
		}
		col.Set(row, d)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

// Value returns the cell value as a Go value. The second result is false
// when the cell is null or the column does not exist.
func (t *Table) Value(row int, name string) (any, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	switch col := t.cols[i].(type) {
	case *BoolColumn:
		v, ok := col.Get(row)
		if !ok {
			return nil, false
		}
		return v, true
	case *IntColumn:
		v, ok := col.Get(row)
		if !ok {
			return nil, false
		}
		return v, true
	case *FloatColumn:
		v, ok := col.Get(row)
		if !ok {
			return nil, false
		}
		return v, true
	case *StringColumn:
		v, ok := col.Get(row)
		if !ok {
			return nil, false
		}
		return v, true
	case *DateColumn:
		v, ok := col.Get(row)
		if !ok {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// CopyRow copies values from row srow of src into row drow of dst for every
// dst column that src declares with the same name and kind. Cells with no
// source counterpart keep their current value.
func CopyRow(dst *Table, drow int, src *Table, srow int) {
	for _, cs := range dst.schema.Columns {
		scol, ok := src.ColumnByName(cs.Name)
		if !ok || scol.Kind() != cs.Type {
			continue
		}
		if scol.IsNull(srow) {
			continue
		}
		switch sc := scol.(type) {
		case *BoolColumn:
			v, _ := sc.Get(srow)
			_ = dst.SetCell(drow, cs.Name, v)
		case *IntColumn:
			v, _ := sc.Get(srow)
			_ = dst.SetCell(drow, cs.Name, v)
		case *FloatColumn:
			v, _ := sc.Get(srow)
			_ = dst.SetCell(drow, cs.Name, v)
		case *StringColumn:
			v, _ := sc.Get(srow)
			_ = dst.SetCell(drow, cs.Name, v)
		case *DateColumn:
			v, _ := sc.Get(srow)
			_ = dst.SetCell(drow, cs.Name, v)
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.schema)
	for r := 0; r < t.nrows; r++ {
		out.AppendNullRow()
		CopyRow(out, r, t, r)
	}
	return out
}

// Filter returns a new table containing the rows for which keep is true.
// The input table is left untouched.
func (t *Table) Filter(keep []bool) *Table {
	out := New(t.schema)
	for r := 0; r < t.nrows && r < len(keep); r++ {
		if !keep[r] {
			continue
		}
		out.AppendNullRow()
		CopyRow(out, out.Rows()-1, t, r)
	}
	return out
}

// DropColumns returns a new table without the named columns. Unknown names
// are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var cols []ColumnSchema
	for _, cs := range t.schema.Columns {
		if _, ok := drop[cs.Name]; ok {
			continue
		}
		cols = append(cols, cs)
	}
	out := New(Schema{Columns: cols})
	for r := 0; r < t.nrows; r++ {
		out.AppendNullRow()
		CopyRow(out, r, t, r)
	}
	return out
}
