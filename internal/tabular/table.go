// Package tabular defines the in-memory tabular value exchanged between
// host-function assets and the database gateway.
package tabular

import (
	"fmt"
	"sort"
)

// Table is a column-ordered, row-homogeneous in-memory result.
// Values holds rows in row-major order; every row has len(Columns) cells.
type Table struct {
	Columns []string
	Values  [][]any
}

// New validates column names and row shapes and returns a Table.
func New(columns []string, values [][]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table must have at least one column")
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	for i, row := range values {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &Table{Columns: columns, Values: values}, nil
}

// FromColumns builds a Table from a column-name -> values mapping.
// All columns must have the same length. Column order is sorted by name
// so the result is deterministic regardless of map iteration order.
func FromColumns(cols map[string][]any) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table must have at least one column")
	}

	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	length := -1
	for _, name := range names {
		if length == -1 {
			length = len(cols[name])
			continue
		}
		if len(cols[name]) != length {
			return nil, fmt.Errorf("column %q has %d values, expected %d", name, len(cols[name]), length)
		}
	}

	values := make([][]any, length)
	for i := range values {
		row := make([]any, len(names))
		for j, name := range names {
			row[j] = cols[name][i]
		}
		values[i] = row
	}

	return New(names, values)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Values)
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}
	out := make([]any, len(t.Values))
	for i, row := range t.Values {
		out[i] = row[idx]
	}
	return out, true
}
