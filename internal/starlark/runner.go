package starlark

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/barefootlabs/bdp/internal/tabular"
)

// Queryer reads an upstream table into memory by qualified name. It is the
// only database surface exposed to producer functions.
type Queryer interface {
	QueryTable(ctx context.Context, name string) (*tabular.Table, error)
}

// CallError reports a failed load or call of a producer function.
type CallError struct {
	Path     string
	Function string
	Cause    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: function %q: %v", e.Path, e.Function, e.Cause)
}

func (e *CallError) Unwrap() error { return e.Cause }

// Runner executes producer functions defined in asset files. Each call gets
// a fresh thread and a fresh set of globals; no state leaks between assets.
type Runner struct {
	queryer Queryer
}

// NewRunner creates a runner whose table builtin reads through queryer.
func NewRunner(queryer Queryer) *Runner {
	return &Runner{queryer: queryer}
}

// fileOptions matches the language surface asset files may use.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Call loads the file at path and invokes the named zero-argument function,
// converting its dict-of-columns return value into a Table.
func (r *Runner) Call(ctx context.Context, path, function string) (*tabular.Table, error) {
	thread := &starlark.Thread{
		Name:  path,
		Print: func(*starlark.Thread, string) {},
	}
	defer watchContext(ctx, thread)()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, nil, r.predeclared(ctx))
	if err != nil {
		return nil, &CallError{Path: path, Function: function, Cause: err}
	}

	value, ok := globals[function]
	if !ok {
		return nil, &CallError{Path: path, Function: function, Cause: fmt.Errorf("not defined")}
	}
	callable, ok := value.(starlark.Callable)
	if !ok {
		return nil, &CallError{Path: path, Function: function, Cause: fmt.Errorf("not callable, got %s", value.Type())}
	}

	result, err := starlark.Call(thread, callable, nil, nil)
	if err != nil {
		return nil, &CallError{Path: path, Function: function, Cause: err}
	}

	table, err := ToTable(result)
	if err != nil {
		return nil, &CallError{Path: path, Function: function, Cause: err}
	}
	return table, nil
}

// predeclared builds the environment visible to asset files.
func (r *Runner) predeclared(ctx context.Context) starlark.StringDict {
	return starlark.StringDict{
		"table": starlark.NewBuiltin("table", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
				return nil, err
			}
			if r.queryer == nil {
				return nil, fmt.Errorf("table(%q): no database available", name)
			}
			t, err := r.queryer.QueryTable(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("table(%q): %w", name, err)
			}
			return FromTable(t)
		}),
	}
}

// watchContext cancels the thread when ctx is done, so long-running loops
// in producer functions honor run timeouts. The returned stop function
// releases the watcher.
func watchContext(ctx context.Context, thread *starlark.Thread) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	return func() { stop() }
}
