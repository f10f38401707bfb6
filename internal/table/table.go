// Package table provides the in-memory tabular model shared by the loader,
// the transformer and the writers.
//
// A Table is an ordered sequence of rows with a fixed, ordered column list.
// Each Row carries positional values aligned to Table.Columns; a nil value is
// the explicit "missing" marker. Non-nil values are one of:
//
//	string     (KindText)
//	int64      (KindInt)
//	float64    (KindFloat)
//	time.Time  (KindTime)
//
// Tables are built once by the loader and then only extended (derived columns
// are appended); rows are never reordered.
package table

import (
	"fmt"
	"strings"
)

// Kind describes the typed representation used for a column's values.
type Kind uint8

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindTime
)

// String returns the logical type name used by DDL mapping and logs.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "timestamp"
	default:
		return "text"
	}
}

// Row is a single record. Line is the 1-based source line (0 for rows that
// were not read from a file).
type Row struct {
	Line int
	V    []any
}

// Table is an ordered, column-aligned collection of rows.
type Table struct {
	Name    string
	Columns []string
	Kinds   []Kind
	Rows    []Row

	index map[string]int
}

// New returns an empty table with the given columns, all typed as text.
func New(name string, columns []string) *Table {
	t := &Table{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Kinds:   make([]Kind, len(columns)),
	}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Len reports the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnIndex returns the position of column name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Require returns the position of column name or a *MissingColumnError.
func (t *Table) Require(name string) (int, error) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return -1, &MissingColumnError{Table: t.Name, Column: name}
	}
	return i, nil
}

// Append adds a row. The values slice is owned by the table afterwards.
func (t *Table) Append(line int, values []any) {
	t.Rows = append(t.Rows, Row{Line: line, V: values})
}

// AddColumn appends a column to the schema and widens every existing row with
// a missing value. It returns the new column's position. A column that
// already exists is replaced in place: it keeps its position, takes the new
// kind and every row's value is reset to missing.
func (t *Table) AddColumn(name string, kind Kind) int {
	if i, ok := t.ColumnIndex(name); ok {
		for len(t.Kinds) < len(t.Columns) {
			t.Kinds = append(t.Kinds, KindText)
		}
		t.Kinds[i] = kind
		for r := range t.Rows {
			if i < len(t.Rows[r].V) {
				t.Rows[r].V[i] = nil
			}
		}
		return i
	}
	t.Columns = append(t.Columns, name)
	t.Kinds = append(t.Kinds, kind)
	t.index[name] = len(t.Columns) - 1
	for i := range t.Rows {
		t.Rows[i].V = append(t.Rows[i].V, nil)
	}
	return len(t.Columns) - 1
}

// Value returns the value at row r, column name; ok is false when the column
// does not exist.
func (t *Table) Value(r int, name string) (any, bool) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	return t.Rows[r].V[i], true
}

// Project returns a new table holding only the listed columns, in the listed
// order. Every column must exist. Row values are copied, not shared.
func (t *Table) Project(columns ...string) (*Table, error) {
	pos := make([]int, len(columns))
	for i, c := range columns {
		p, err := t.Require(c)
		if err != nil {
			return nil, err
		}
		pos[i] = p
	}

	out := New(t.Name, columns)
	for i, p := range pos {
		out.Kinds[i] = t.Kinds[p]
	}
	out.Rows = make([]Row, len(t.Rows))
	for r, row := range t.Rows {
		v := make([]any, len(pos))
		for i, p := range pos {
			v[i] = row.V[p]
		}
		out.Rows[r] = Row{Line: row.Line, V: v}
	}
	return out, nil
}

// Drop returns a new table without the listed columns. Columns that do not
// exist are ignored; callers that need strictness should check Has first.
func (t *Table) Drop(columns ...string) *Table {
	skip := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		skip[c] = struct{}{}
	}
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := skip[c]; !ok {
			keep = append(keep, c)
		}
	}
	out, _ := t.Project(keep...) // every kept column exists
	return out
}

// Clone returns a deep copy of the schema and row slices.
func (t *Table) Clone() *Table {
	out, _ := t.Project(t.Columns...)
	return out
}

// String is a short description used in logs.
func (t *Table) String() string {
	return fmt.Sprintf("%s(rows=%d cols=%s)", t.Name, len(t.Rows), strings.Join(t.Columns, ","))
}

// MissingColumnError reports a structural schema problem: a column that an
// operation needs is not present in the table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("table %s: missing column %q", e.Table, e.Column)
}
