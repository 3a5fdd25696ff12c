package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/barefootlabs/bdp/internal/asset"
	"github.com/barefootlabs/bdp/internal/duckdb"
)

// materialize writes one asset's target table. Dispatch is exhaustive over
// the closed kind set.
func (e *Engine) materialize(ctx context.Context, a *asset.Asset) error {
	switch a.Kind {
	case asset.KindQuery:
		return e.materializeQuery(ctx, a)
	case asset.KindFunction:
		return e.materializeFunction(ctx, a)
	case asset.KindScript:
		return e.materializeScript(ctx, a)
	default:
		return &MaterializationError{
			Asset: a.QualifiedName(),
			Path:  a.Path,
			Cause: fmt.Errorf("unsupported kind %s", a.Kind),
		}
	}
}

// materializeQuery runs the asset file as the body of a
// create-or-replace-table statement. The metadata block rides along as SQL
// comments.
func (e *Engine) materializeQuery(ctx context.Context, a *asset.Asset) error {
	source, err := os.ReadFile(a.Path)
	if err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}

	query := strings.TrimRight(strings.TrimSpace(string(source)), ";")
	if !hasQueryBody(query) {
		return &MaterializationError{
			Asset: a.QualifiedName(),
			Path:  a.Path,
			Cause: errors.New("asset file contains no query"),
		}
	}

	e.dbMu.RLock()
	defer e.dbMu.RUnlock()

	// Gone only if a script asset failed to reopen the database.
	if e.gateway == nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: errors.New("database connection is not open")}
	}

	if err := e.gateway.EnsureSchema(ctx, a.Schema); err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}

	stmt := fmt.Sprintf("create or replace table %s as\n%s", a.QualifiedName(), query)
	if err := e.gateway.Exec(ctx, stmt); err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}
	return nil
}

// hasQueryBody reports whether any line is more than a line comment.
func hasQueryBody(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return true
		}
	}
	return false
}

// materializeFunction calls the producer function named after the asset and
// writes its tabular result.
func (e *Engine) materializeFunction(ctx context.Context, a *asset.Asset) error {
	e.dbMu.RLock()
	defer e.dbMu.RUnlock()

	if e.runner == nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: errors.New("database connection is not open")}
	}

	table, err := e.runner.Call(ctx, a.Path, a.Name)
	if err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}
	if err := e.gateway.ReplaceTable(ctx, a.Schema, a.Name, table); err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}
	return nil
}

// materializeScript runs the asset file as a bash subprocess. The engine
// creates the target schema, hands the script the database location and
// target through the environment, and verifies the table exists afterwards;
// the script owns table creation.
//
// DuckDB holds an exclusive lock on the database file, so the engine
// releases its handle while the script runs and reopens it to verify the
// result. The write lock on dbMu keeps concurrent materializations off the
// database in the meantime; under jobs > 1 a script asset therefore runs
// exclusively within its level.
func (e *Engine) materializeScript(ctx context.Context, a *asset.Asset) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.gateway == nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: errors.New("database connection is not open")}
	}

	if err := e.gateway.EnsureSchema(ctx, a.Schema); err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}

	// An in-memory database cannot be shared with a subprocess; the handle
	// stays open and the existence check below reports the miss.
	dbPath := e.gateway.Path()
	fileBacked := dbPath != duckdb.MemoryPath
	if fileBacked {
		if err := e.releaseGateway(); err != nil {
			return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
		}
	}

	runErr := e.runScript(ctx, a, dbPath)

	if fileBacked {
		if err := e.openGateway(ctx); err != nil {
			return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
		}
	}
	if runErr != nil {
		return runErr
	}

	exists, err := e.gateway.TableExists(ctx, a.Schema, a.Name)
	if err != nil {
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: err}
	}
	if !exists {
		return &MaterializationError{
			Asset: a.QualifiedName(),
			Path:  a.Path,
			Cause: fmt.Errorf("script exited 0 but did not create table %s", a.QualifiedName()),
		}
	}
	return nil
}

// runScript executes the bash subprocess with the timeout applied.
func (e *Engine) runScript(ctx context.Context, a *asset.Asset, dbPath string) error {
	scriptCtx, cancel := context.WithTimeout(ctx, e.cfg.ScriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(scriptCtx, "bash", a.Path)
	cmd.Env = append(os.Environ(),
		duckdb.PathEnvVar+"="+dbPath,
		"BDP_SCHEMA="+a.Schema,
		"BDP_TABLE="+a.Name,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if scriptCtx.Err() == context.DeadlineExceeded {
			return &MaterializationError{
				Asset: a.QualifiedName(),
				Path:  a.Path,
				Cause: &ScriptTimeoutError{Asset: a.QualifiedName(), Timeout: e.cfg.ScriptTimeout},
			}
		}
		cause := err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cause = fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return &MaterializationError{Asset: a.QualifiedName(), Path: a.Path, Cause: cause}
	}
	return nil
}
