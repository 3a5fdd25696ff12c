// Package asset defines the asset record and the discovery walk that
// collects assets from an assets directory tree.
package asset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/barefootlabs/bdp/internal/metadata"
)

// Kind identifies the execution strategy of an asset. The set is closed:
// it is determined by file suffix and only grows with an engine change.
type Kind int

const (
	// KindQuery is a .sql asset materialized as create-or-replace-table.
	KindQuery Kind = iota
	// KindFunction is a .py asset defining a Starlark function that
	// produces a tabular value.
	KindFunction
	// KindScript is a .sh asset executed as a subprocess that writes the
	// target table itself.
	KindScript
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "sql"
	case KindFunction:
		return "python"
	case KindScript:
		return "script"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// kindBySuffix maps eligible file suffixes to asset kinds.
var kindBySuffix = map[string]Kind{
	".sql": KindQuery,
	".py":  KindFunction,
	".sh":  KindScript,
}

// commentPrefix maps asset kinds to their metadata comment prefix.
var commentPrefix = map[Kind]string{
	KindQuery:    "--",
	KindFunction: "#",
	KindScript:   "#",
}

// Asset is a single materialization unit backed by one source file.
type Asset struct {
	// Name is the target table name from asset.name.
	Name string
	// Schema is the target schema from asset.schema.
	Schema string
	// Path is the absolute location of the defining file.
	Path string
	// Kind selects the execution strategy.
	Kind Kind
	// Depends lists the qualified names this asset reads from.
	Depends []string
}

// QualifiedName returns the schema.table identifier addressing the asset's
// output. It is globally unique across a discovered set.
func (a *Asset) QualifiedName() string {
	return a.Schema + "." + a.Name
}

// CommentPrefix returns the metadata comment prefix for the asset's kind.
func (a *Asset) CommentPrefix() string {
	return commentPrefix[a.Kind]
}

// KindForPath returns the asset kind for a file path, or false when the
// suffix does not identify an asset.
func KindForPath(path string) (Kind, bool) {
	kind, ok := kindBySuffix[filepath.Ext(path)]
	return kind, ok
}

// FromFile reads and parses a single asset file.
func FromFile(path string) (*Asset, error) {
	kind, ok := KindForPath(path)
	if !ok {
		return nil, fmt.Errorf("not an asset file: %s", path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &DiscoveryError{Path: path, Cause: err}
	}

	block, err := metadata.Parse(path, string(source), commentPrefix[kind])
	if err != nil {
		return nil, err
	}

	name, err := block.Identifier(path, metadata.FieldName)
	if err != nil {
		return nil, err
	}
	schema, err := block.Identifier(path, metadata.FieldSchema)
	if err != nil {
		return nil, err
	}
	depends, err := block.Depends(path)
	if err != nil {
		return nil, err
	}

	return &Asset{
		Name:    name,
		Schema:  schema,
		Path:    path,
		Kind:    kind,
		Depends: depends,
	}, nil
}
