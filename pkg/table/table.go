// Package table provides the in-memory columnar table used by nutripipe.
//
// A Table is an immutable value: every operation (Select, Relabel, Pivot,
// RightJoin, Melt) returns a new Table and leaves its inputs untouched.
// Columns may share backing value slices between tables because nothing
// writes to a column after it has been constructed.
//
// Cells hold one of int64, float64, string, or nil for a missing value.
package table

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch is returned when columns of different lengths are combined.
	ErrLengthMismatch = errors.New("column length mismatch")
	// ErrKeyKind is returned when join key columns mix text and numbers.
	ErrKeyKind = errors.New("unsupported key column kind")
)

// Kind is the value type of a column.
type Kind uint8

// Column kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Label identifies a column. Labels created from numeric data, such as the
// column headers produced by Pivot over an integer column, are numeric and
// carry their id.
type Label struct {
	name    string
	id      int64
	numeric bool
}

// Name returns a textual label.
func Name(s string) Label {
	return Label{name: s}
}

// ID returns a numeric label.
func ID(n int64) Label {
	return Label{id: n, numeric: true}
}

// Numeric reports the label's id and whether the label is numeric.
func (l Label) Numeric() (int64, bool) {
	return l.id, l.numeric
}

func (l Label) String() string {
	if l.numeric {
		return strconv.FormatInt(l.id, 10)
	}
	return l.name
}

// Column is a labelled, typed sequence of cells.
type Column struct {
	Label  Label
	Kind   Kind
	Values []any
}

// NewColumn creates a column with a textual label.
func NewColumn(name string, kind Kind, values []any) *Column {
	return &Column{Label: Name(name), Kind: kind, Values: values}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// Table is an ordered set of equally long columns.
type Table struct {
	cols []*Column
	rows int
}

// New builds a table from columns. All columns must have the same length.
func New(cols ...*Column) (*Table, error) {
	t := &Table{cols: cols}
	for i, c := range cols {
		if i == 0 {
			t.rows = c.Len()
			continue
		}
		if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d",
				ErrLengthMismatch, c.Label, c.Len(), t.rows)
		}
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Labels returns the column labels in order.
func (t *Table) Labels() []Label {
	labels := make([]Label, len(t.cols))
	for i, c := range t.cols {
		labels[i] = c.Label
	}
	return labels
}

// Names returns the column labels rendered as strings.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Label.String()
	}
	return names
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column {
	return t.cols[i]
}

// Index returns the position of the first column whose label renders as
// name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.cols {
		if c.Label.String() == name {
			return i
		}
	}
	return -1
}

// Column returns the first column whose label renders as name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.cols[i], true
}

// Require returns an error wrapping ErrColumnNotFound for the first name
// that is absent from the table.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if t.Index(name) < 0 {
			return fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
	}
	return nil
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Select returns a table holding the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j := t.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		idx[i] = j
	}
	return t.SelectAt(idx...), nil
}

// SelectAt returns a table holding the columns at the given positions.
func (t *Table) SelectAt(idx ...int) *Table {
	cols := make([]*Column, len(idx))
	for i, j := range idx {
		cols[i] = t.cols[j]
	}
	return &Table{cols: cols, rows: t.rows}
}

// Relabel returns a table whose column labels are replaced by fn.
// Column order and values are unchanged.
func (t *Table) Relabel(fn func(Label) Label) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = &Column{Label: fn(c.Label), Kind: c.Kind, Values: c.Values}
	}
	return &Table{cols: cols, rows: t.rows}
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = &Column{Label: c.Label, Kind: c.Kind, Values: c.Values[:n]}
	}
	return &Table{cols: cols, rows: n}
}
