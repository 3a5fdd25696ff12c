package tabular

import (
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	table, err := New([]string{"id", "name"}, [][]any{
		{int64(1), "alice"},
		{int64(2), "bob"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if table.NumRows() != 2 {
		t.Errorf("expected 2 rows, got %d", table.NumRows())
	}
}

func TestNew_NoColumns(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for empty column set")
	}
}

func TestNew_DuplicateColumns(t *testing.T) {
	if _, err := New([]string{"a", "a"}, nil); err == nil {
		t.Error("expected error for duplicate column names")
	}
}

func TestNew_RaggedRow(t *testing.T) {
	_, err := New([]string{"a", "b"}, [][]any{{1, 2}, {3}})
	if err == nil {
		t.Error("expected error for row with wrong width")
	}
}

func TestFromColumns(t *testing.T) {
	table, err := FromColumns(map[string][]any{
		"n":      {int64(1), int64(2)},
		"parity": {"odd", "even"},
	})
	if err != nil {
		t.Fatalf("FromColumns failed: %v", err)
	}

	// Column order is sorted for determinism.
	if !reflect.DeepEqual(table.Columns, []string{"n", "parity"}) {
		t.Errorf("expected sorted columns [n parity], got %v", table.Columns)
	}
	if table.NumRows() != 2 {
		t.Errorf("expected 2 rows, got %d", table.NumRows())
	}

	n, ok := table.Column("n")
	if !ok {
		t.Fatal("column n not found")
	}
	if !reflect.DeepEqual(n, []any{int64(1), int64(2)}) {
		t.Errorf("unexpected column values: %v", n)
	}
}

func TestFromColumns_RaggedColumns(t *testing.T) {
	_, err := FromColumns(map[string][]any{
		"a": {1, 2, 3},
		"b": {1},
	})
	if err == nil {
		t.Error("expected error for columns of different lengths")
	}
}

func TestFromColumns_Empty(t *testing.T) {
	if _, err := FromColumns(nil); err == nil {
		t.Error("expected error for empty column map")
	}
}

func TestColumn_Unknown(t *testing.T) {
	table, err := New([]string{"a"}, [][]any{{1}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := table.Column("missing"); ok {
		t.Error("expected Column to report missing column")
	}
}
