//go:build integration

package duckdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barefootlabs/bdp/internal/tabular"
)

func openTestGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = gw.Close() })
	return gw
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.duckdb")
	gw, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = gw.Close() }()

	assert.Equal(t, path, gw.Path())
}

func TestReplaceTableAndQueryTable(t *testing.T) {
	ctx := context.Background()
	gw := openTestGateway(t)

	in, err := tabular.FromColumns(map[string][]any{
		"id":    {int64(1), int64(2)},
		"name":  {"alice", "bob"},
		"score": {1.5, 2.5},
	})
	require.NoError(t, err)

	require.NoError(t, gw.ReplaceTable(ctx, "raw", "people", in))

	out, err := gw.QueryTable(ctx, "raw.people")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "score"}, out.Columns)
	assert.Equal(t, 2, out.NumRows())
}

func TestReplaceTable_FullRefresh(t *testing.T) {
	ctx := context.Background()
	gw := openTestGateway(t)

	first, err := tabular.FromColumns(map[string][]any{"n": {int64(1), int64(2), int64(3)}})
	require.NoError(t, err)
	require.NoError(t, gw.ReplaceTable(ctx, "raw", "numbers", first))

	second, err := tabular.FromColumns(map[string][]any{"n": {int64(9)}})
	require.NoError(t, err)
	require.NoError(t, gw.ReplaceTable(ctx, "raw", "numbers", second))

	out, err := gw.QueryTable(ctx, "raw.numbers")
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())
}

func TestReplaceTable_EmptyTable(t *testing.T) {
	ctx := context.Background()
	gw := openTestGateway(t)

	empty, err := tabular.New([]string{"n"}, nil)
	require.NoError(t, err)
	require.NoError(t, gw.ReplaceTable(ctx, "raw", "nothing", empty))

	out, err := gw.QueryTable(ctx, "raw.nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
}

func TestTableExists(t *testing.T) {
	ctx := context.Background()
	gw := openTestGateway(t)

	exists, err := gw.TableExists(ctx, "raw", "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	in, err := tabular.FromColumns(map[string][]any{"n": {int64(1)}})
	require.NoError(t, err)
	require.NoError(t, gw.ReplaceTable(ctx, "raw", "present", in))

	exists, err = gw.TableExists(ctx, "raw", "present")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExec_QueryError(t *testing.T) {
	ctx := context.Background()
	gw := openTestGateway(t)

	err := gw.Exec(ctx, "select * from does.not_exist")
	require.Error(t, err)

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Contains(t, qerr.SQL, "does.not_exist")
}
