package models

import (
	"database/sql"
	"fmt"
)

// Frame is an untyped table of nullable text cells, as it comes out of a flat
// export or a query result. Columns are stored by name; row order is kept.
type Frame struct {
	columns []string
	data    map[string][]sql.NullString
	rows    int
}

// NewFrame creates an empty frame with the given column order.
// Duplicate column names keep only the first occurrence.
func NewFrame(columns []string) *Frame {
	f := &Frame{
		columns: make([]string, 0, len(columns)),
		data:    make(map[string][]sql.NullString, len(columns)),
	}
	for _, c := range columns {
		if _, exists := f.data[c]; exists {
			continue
		}
		f.columns = append(f.columns, c)
		f.data[c] = nil
	}
	return f
}

// AppendRow adds one row. The cells must follow the column order passed to NewFrame.
func (f *Frame) AppendRow(cells []sql.NullString) error {
	if len(cells) != len(f.columns) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(cells), len(f.columns))
	}
	for i, c := range f.columns {
		f.data[c] = append(f.data[c], cells[i])
	}
	f.rows++
	return nil
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Has reports whether the column exists.
func (f *Frame) Has(column string) bool {
	_, ok := f.data[column]
	return ok
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Cell returns the value at (row, column). Missing columns read as null.
func (f *Frame) Cell(row int, column string) sql.NullString {
	col, ok := f.data[column]
	if !ok || row < 0 || row >= len(col) {
		return sql.NullString{}
	}
	return col[row]
}

// Rename returns a new frame with columns renamed according to renames
// (old name -> new name). The receiver is left untouched; cell slices are
// shared because frames are never mutated after load.
func (f *Frame) Rename(renames map[string]string) *Frame {
	out := &Frame{
		columns: make([]string, 0, len(f.columns)),
		data:    make(map[string][]sql.NullString, len(f.columns)),
		rows:    f.rows,
	}
	for _, c := range f.columns {
		name := c
		if to, ok := renames[c]; ok {
			name = to
		}
		if _, exists := out.data[name]; exists {
			continue
		}
		out.columns = append(out.columns, name)
		out.data[name] = f.data[c]
	}
	return out
}
