// Package engine orchestrates asset materialization: discovery, graph
// construction and validation, plan computation, and the per-kind
// materialization run.
package engine

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/barefootlabs/bdp/internal/asset"
	"github.com/barefootlabs/bdp/internal/dag"
	"github.com/barefootlabs/bdp/internal/duckdb"
	"github.com/barefootlabs/bdp/internal/starlark"
)

// DefaultScriptTimeout bounds external-process assets that never exit.
const DefaultScriptTimeout = 5 * time.Minute

// Config carries the engine settings resolved by the caller.
type Config struct {
	// AssetsDir is the assets root. Empty means: search upward from the
	// working directory.
	AssetsDir string
	// DatabasePath is the DuckDB location. Empty falls back to the
	// BDP_DB_PATH environment variable, then the default file.
	DatabasePath string
	// Jobs bounds concurrent materializations. Values below 2 run the plan
	// sequentially.
	Jobs int
	// ScriptTimeout bounds each external-process asset. Zero means the
	// default.
	ScriptTimeout time.Duration
}

// Engine holds the discovered asset set and its dependency graph. The
// database connection opens lazily on first materialization, so read-only
// operations (list, check) never touch the database file.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	assets map[string]*asset.Asset
	graph  *dag.Graph

	// dbMu guards gateway and runner. Query and function materializations
	// take the read lock; script materializations take the write lock so
	// they can release the database file lock for the subprocess.
	dbMu    sync.RWMutex
	gateway *duckdb.Gateway
	runner  *starlark.Runner
}

// New creates an engine. A nil logger discards all output.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ScriptTimeout <= 0 {
		cfg.ScriptTimeout = DefaultScriptTimeout
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		assets: make(map[string]*asset.Asset),
		graph:  dag.NewGraph(),
	}
}

// Close releases the database connection if one was opened.
func (e *Engine) Close() error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.gateway == nil {
		return nil
	}
	err := e.gateway.Close()
	e.gateway = nil
	e.runner = nil
	return err
}

// Discover locates the assets root, parses every asset file, and builds the
// validated dependency graph. All validation completes here; a graph that
// survives Discover is safe to plan and materialize.
func (e *Engine) Discover() error {
	root := e.cfg.AssetsDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		root, err = asset.FindRoot(cwd)
		if err != nil {
			return err
		}
	}

	e.logger.Debug("discovering assets", "root", root)

	assets, err := asset.Discover(root)
	if err != nil {
		return err
	}

	graph, index, err := buildGraph(assets)
	if err != nil {
		return err
	}

	e.assets = index
	e.graph = graph
	e.logger.Debug("discovery complete", "assets", len(assets), "edges", graph.EdgeCount())
	return nil
}

// buildGraph indexes assets by qualified name and wires dependency edges,
// rejecting duplicates, unknown dependencies, and cycles.
func buildGraph(assets []*asset.Asset) (*dag.Graph, map[string]*asset.Asset, error) {
	index := make(map[string]*asset.Asset, len(assets))
	graph := dag.NewGraph()

	for _, a := range assets {
		name := a.QualifiedName()
		if other, exists := index[name]; exists {
			return nil, nil, &DuplicateAssetError{Name: name, Path: a.Path, OtherPath: other.Path}
		}
		index[name] = a
		graph.AddNode(name, a)
	}

	for _, a := range assets {
		for _, dep := range a.Depends {
			if _, exists := index[dep]; !exists {
				return nil, nil, &UnknownDependencyError{Asset: a.QualifiedName(), Path: a.Path, Dependency: dep}
			}
			if err := graph.AddEdge(dep, a.QualifiedName()); err != nil {
				// Self-loop: report it as a one-member cycle.
				return nil, nil, &CyclicDependencyError{Members: []string{a.QualifiedName(), a.QualifiedName()}}
			}
		}
	}

	if hasCycle, path := graph.HasCycle(); hasCycle {
		return nil, nil, &CyclicDependencyError{Members: path}
	}

	return graph, index, nil
}

// Assets returns the discovered assets keyed by qualified name.
func (e *Engine) Assets() map[string]*asset.Asset {
	return e.assets
}

// Graph returns the validated dependency graph.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// ensureGateway opens the database connection on first use. Callers that
// hold dbMu use openGateway directly.
func (e *Engine) ensureGateway(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	return e.openGateway(ctx)
}

// openGateway opens the database connection if none is open. Caller must
// hold the dbMu write lock.
func (e *Engine) openGateway(ctx context.Context) error {
	if e.gateway != nil {
		return nil
	}
	path := duckdb.ResolvePath(e.cfg.DatabasePath)
	e.logger.Debug("opening database", "path", path)

	gw, err := duckdb.Open(ctx, path)
	if err != nil {
		return err
	}
	e.gateway = gw
	e.runner = starlark.NewRunner(gw)
	return nil
}

// releaseGateway closes the database handle so another process can take
// the database's exclusive file lock. Caller must hold the dbMu write
// lock.
func (e *Engine) releaseGateway() error {
	err := e.gateway.Close()
	e.gateway = nil
	e.runner = nil
	return err
}
