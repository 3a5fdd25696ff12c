// Package starlark loads host-function asset files and runs the producer
// function they define, isolating the interpreter behind a narrow
// interface so the engine only ever sees tabular values.
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/barefootlabs/bdp/internal/tabular"
)

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: nil, string, int, int64, float64, bool, []any,
// map[string][]any.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int32:
		return starlark.MakeInt64(int64(val)), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float32:
		return starlark.Float(float64(val)), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string][]any:
		dict := starlark.NewDict(len(val))
		for k, items := range val {
			sv, err := GoToStarlark([]any(items))
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark scalar back to a Go value.
// Returns: nil, string, int64, float64, or bool.
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s does not fit in 64 bits", val.String())
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type())
	}
}

// ToTable converts the return value of a producer function into a Table.
// The expected shape is a dict mapping column names to equal-length lists
// of scalars, mirroring a columnar frame constructor.
func ToTable(v starlark.Value) (*tabular.Table, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("expected a dict of columns, got %s", v.Type())
	}

	cols := make(map[string][]any, dict.Len())
	for _, item := range dict.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			return nil, fmt.Errorf("column name must be a string, got %s", item[0].Type())
		}

		var values []starlark.Value
		switch col := item[1].(type) {
		case *starlark.List:
			values = make([]starlark.Value, col.Len())
			for i := 0; i < col.Len(); i++ {
				values[i] = col.Index(i)
			}
		case starlark.Tuple:
			values = []starlark.Value(col)
		default:
			return nil, fmt.Errorf("column %q must be a list, got %s", key, item[1].Type())
		}

		goValues := make([]any, len(values))
		for i, sv := range values {
			gv, err := ToGo(sv)
			if err != nil {
				return nil, fmt.Errorf("column %q index %d: %w", key, i, err)
			}
			goValues[i] = gv
		}
		cols[string(key)] = goValues
	}

	return tabular.FromColumns(cols)
}

// FromTable converts a Table to the dict-of-lists shape producer functions
// consume when reading upstream tables.
func FromTable(t *tabular.Table) (starlark.Value, error) {
	cols := make(map[string][]any, len(t.Columns))
	for _, name := range t.Columns {
		values, _ := t.Column(name)
		cols[name] = normalizeColumn(values)
	}
	return GoToStarlark(cols)
}

// normalizeColumn maps driver-returned values onto the scalar types the
// converter supports.
func normalizeColumn(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case []byte:
			out[i] = string(val)
		case int8:
			out[i] = int64(val)
		case int16:
			out[i] = int64(val)
		case uint32:
			out[i] = int64(val)
		case uint64:
			out[i] = int64(val)
		default:
			out[i] = v
		}
	}
	return out
}
