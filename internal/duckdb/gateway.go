// Package duckdb provides the thin gateway to the embedded analytical
// database consumed by the materializer.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/barefootlabs/bdp/internal/tabular"
)

// DefaultPath is the database file used when no location is configured.
const DefaultPath = "bdp.duckdb"

// PathEnvVar overrides the database location; the same variable is handed
// to external-process assets so they write into the same database.
const PathEnvVar = "BDP_DB_PATH"

// MemoryPath selects an in-memory database instead of a file.
const MemoryPath = ":memory:"

// QueryError reports a failed statement against the database.
type QueryError struct {
	SQL   string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v (sql: %s)", e.Cause, summarize(e.SQL))
}

func (e *QueryError) Unwrap() error { return e.Cause }

// ResolvePath returns the database location: explicit path, else the
// BDP_DB_PATH environment variable, else the default file.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(PathEnvVar); env != "" {
		return env
	}
	return DefaultPath
}

// Gateway is the connection handle to the embedded table store. It is a
// single shared resource for the duration of a run; database/sql hands
// concurrent writers their own connections from the pool.
type Gateway struct {
	db   *sql.DB
	path string
}

// Open connects to the database at path. Use ":memory:" for an in-memory
// database.
func Open(ctx context.Context, path string) (*Gateway, error) {
	dsn := path
	if dsn == MemoryPath {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return &Gateway{db: db, path: path}, nil
}

// Path returns the database location the gateway was opened with.
func (g *Gateway) Path() string { return g.path }

// Close releases the connection.
func (g *Gateway) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

// Exec executes a statement that returns no rows.
func (g *Gateway) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return &QueryError{SQL: query, Cause: err}
	}
	return nil
}

// EnsureSchema creates the schema if it does not exist.
func (g *Gateway) EnsureSchema(ctx context.Context, schema string) error {
	return g.Exec(ctx, fmt.Sprintf("create schema if not exists %s", schema))
}

// ReplaceTable writes an in-memory table as schema.table, replacing any
// prior contents. Column types are inferred from the first non-nil value
// in each column; the whole write happens in one transaction.
func (g *Gateway) ReplaceTable(ctx context.Context, schema, table string, t *tabular.Table) error {
	if err := g.EnsureSchema(ctx, schema); err != nil {
		return err
	}

	target := schema + "." + table

	cols := make([]string, len(t.Columns))
	for i, name := range t.Columns {
		cols[i] = fmt.Sprintf("%s %s", name, columnType(t, i))
	}
	createSQL := fmt.Sprintf("create or replace table %s (%s)", target, strings.Join(cols, ", "))

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return &QueryError{SQL: createSQL, Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return &QueryError{SQL: createSQL, Cause: err}
	}

	if len(t.Values) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
		insertSQL := fmt.Sprintf("insert into %s values (%s)", target, placeholders)
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return &QueryError{SQL: insertSQL, Cause: err}
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range t.Values {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return &QueryError{SQL: insertSQL, Cause: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &QueryError{SQL: createSQL, Cause: err}
	}
	return nil
}

// QueryTable reads a full table or query target into memory.
func (g *Gateway) QueryTable(ctx context.Context, name string) (*tabular.Table, error) {
	query := fmt.Sprintf("select * from %s", name)
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &QueryError{SQL: query, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{SQL: query, Cause: err}
	}

	var values [][]any
	for rows.Next() {
		row := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{SQL: query, Cause: err}
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: query, Cause: err}
	}

	return tabular.New(columns, values)
}

// TableExists reports whether schema.table exists.
func (g *Gateway) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const query = `select 1 from information_schema.tables where table_schema = ? and table_name = ? limit 1`
	var one int
	err := g.db.QueryRowContext(ctx, query, schema, table).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &QueryError{SQL: query, Cause: err}
	}
	return true, nil
}

// columnType infers a DuckDB column type from the first non-nil value.
func columnType(t *tabular.Table, col int) string {
	for _, row := range t.Values {
		switch row[col].(type) {
		case nil:
			continue
		case bool:
			return "boolean"
		case int, int32, int64:
			return "bigint"
		case float32, float64:
			return "double"
		default:
			return "varchar"
		}
	}
	return "varchar"
}

// summarize truncates long SQL for error messages.
func summarize(query string) string {
	s := strings.Join(strings.Fields(query), " ")
	if len(s) > 120 {
		return s[:117] + "..."
	}
	return s
}
