package starlark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barefootlabs/bdp/internal/tabular"
)

// fakeQueryer serves canned tables by name.
type fakeQueryer struct {
	tables map[string]*tabular.Table
}

func (f *fakeQueryer) QueryTable(_ context.Context, name string) (*tabular.Table, error) {
	if t, ok := f.tables[name]; ok {
		return t, nil
	}
	return nil, os.ErrNotExist
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "producer.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCall_ReturnsTable(t *testing.T) {
	path := writeScript(t, `
def numbers():
    return {"n": [1, 2, 3], "label": ["a", "b", "c"]}
`)

	runner := NewRunner(nil)
	table, err := runner.Call(context.Background(), path, "numbers")
	require.NoError(t, err)

	assert.Equal(t, []string{"label", "n"}, table.Columns)
	assert.Equal(t, 3, table.NumRows())

	n, ok := table.Column("n")
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, n)
}

func TestCall_TableBuiltin(t *testing.T) {
	upstream, err := tabular.FromColumns(map[string][]any{
		"n": {int64(1), int64(2)},
	})
	require.NoError(t, err)

	queryer := &fakeQueryer{tables: map[string]*tabular.Table{"raw.numbers": upstream}}
	path := writeScript(t, `
def doubled():
    base = table("raw.numbers")
    return {"n": [n * 2 for n in base["n"]]}
`)

	runner := NewRunner(queryer)
	table, err := runner.Call(context.Background(), path, "doubled")
	require.NoError(t, err)

	n, ok := table.Column("n")
	require.True(t, ok)
	assert.Equal(t, []any{int64(2), int64(4)}, n)
}

func TestCall_FunctionNotDefined(t *testing.T) {
	path := writeScript(t, `
def other():
    return {"n": [1]}
`)

	runner := NewRunner(nil)
	_, err := runner.Call(context.Background(), path, "numbers")
	require.Error(t, err)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "numbers", callErr.Function)
	assert.Contains(t, err.Error(), "not defined")
}

func TestCall_NotCallable(t *testing.T) {
	path := writeScript(t, `numbers = 42`)

	runner := NewRunner(nil)
	_, err := runner.Call(context.Background(), path, "numbers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not callable")
}

func TestCall_NonDictResult(t *testing.T) {
	path := writeScript(t, `
def numbers():
    return [1, 2, 3]
`)

	runner := NewRunner(nil)
	_, err := runner.Call(context.Background(), path, "numbers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a dict")
}

func TestCall_RaggedColumns(t *testing.T) {
	path := writeScript(t, `
def numbers():
    return {"a": [1, 2], "b": [1]}
`)

	runner := NewRunner(nil)
	_, err := runner.Call(context.Background(), path, "numbers")
	require.Error(t, err)
}

func TestCall_EvalError(t *testing.T) {
	path := writeScript(t, `
def numbers():
    fail("boom")
`)

	runner := NewRunner(nil)
	_, err := runner.Call(context.Background(), path, "numbers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestToTable_ScalarTypes(t *testing.T) {
	path := writeScript(t, `
def mixed():
    return {
        "i": [1, 2],
        "f": [1.5, 2.5],
        "s": ["x", "y"],
        "b": [True, False],
        "n": [None, None],
    }
`)

	runner := NewRunner(nil)
	table, err := runner.Call(context.Background(), path, "mixed")
	require.NoError(t, err)

	f, _ := table.Column("f")
	assert.Equal(t, []any{1.5, 2.5}, f)
	b, _ := table.Column("b")
	assert.Equal(t, []any{true, false}, b)
	n, _ := table.Column("n")
	assert.Equal(t, []any{nil, nil}, n)
}

func TestFromTable_RoundTrip(t *testing.T) {
	in, err := tabular.FromColumns(map[string][]any{
		"id":   {int64(1), int64(2)},
		"name": {"a", "b"},
	})
	require.NoError(t, err)

	value, err := FromTable(in)
	require.NoError(t, err)

	out, err := ToTable(value)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Values, out.Values)
}
