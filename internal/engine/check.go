package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barefootlabs/bdp/internal/asset"
	"github.com/barefootlabs/bdp/internal/dag"
	"github.com/barefootlabs/bdp/internal/metadata"
)

// CheckResult is the outcome of one validation rule across the asset set.
type CheckResult struct {
	Rule     string
	Passed   bool
	Problems []string
}

// Check runs every validation rule over the discovered assets and reports
// each rule's outcome. Unlike Discover, a rule violation does not abort the
// remaining rules, so one invocation surfaces everything wrong at once.
// Requires Discover-style parseable assets; unreadable or malformed files
// still fail fast.
func (e *Engine) Check() ([]CheckResult, error) {
	root := e.cfg.AssetsDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root, err = asset.FindRoot(cwd)
		if err != nil {
			return nil, err
		}
	}

	assets, err := asset.Discover(root)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*asset.Asset, len(assets))
	for _, a := range assets {
		if _, exists := index[a.QualifiedName()]; !exists {
			index[a.QualifiedName()] = a
		}
	}

	return []CheckResult{
		checkFileNames(assets),
		checkDependenciesExist(assets, index),
		checkNoCycles(assets, index),
		checkBodies(assets),
		checkNoDuplicateDependencies(assets),
	}, nil
}

// checkFileNames verifies each file is named after its asset.
func checkFileNames(assets []*asset.Asset) CheckResult {
	result := CheckResult{Rule: "file name matches asset name", Passed: true}
	for _, a := range assets {
		base := strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
		if base != a.Name {
			result.Passed = false
			result.Problems = append(result.Problems,
				fmt.Sprintf("%s: file is named %q but asset is named %q", a.Path, base, a.Name))
		}
	}
	return result
}

// checkDependenciesExist verifies every declared dependency resolves to a
// discovered asset.
func checkDependenciesExist(assets []*asset.Asset, index map[string]*asset.Asset) CheckResult {
	result := CheckResult{Rule: "all dependencies exist", Passed: true}
	for _, a := range assets {
		for _, dep := range a.Depends {
			if _, exists := index[dep]; !exists {
				result.Passed = false
				result.Problems = append(result.Problems,
					fmt.Sprintf("%s: depends on unknown asset %s", a.QualifiedName(), dep))
			}
		}
	}
	return result
}

// checkNoCycles builds the graph over resolvable edges and looks for cycles.
// Unresolvable dependencies are the previous rule's problem.
func checkNoCycles(assets []*asset.Asset, index map[string]*asset.Asset) CheckResult {
	result := CheckResult{Rule: "no dependency cycles", Passed: true}

	graph := dag.NewGraph()
	for _, a := range assets {
		graph.AddNode(a.QualifiedName(), a)
	}
	for _, a := range assets {
		for _, dep := range a.Depends {
			if _, exists := index[dep]; !exists {
				continue
			}
			if err := graph.AddEdge(dep, a.QualifiedName()); err != nil {
				result.Passed = false
				result.Problems = append(result.Problems,
					fmt.Sprintf("%s: depends on itself", a.QualifiedName()))
			}
		}
	}

	if hasCycle, path := graph.HasCycle(); hasCycle {
		result.Passed = false
		result.Problems = append(result.Problems,
			fmt.Sprintf("cycle: %s", strings.Join(path, " -> ")))
	}
	return result
}

// checkBodies verifies each asset file has content beyond its metadata
// block.
func checkBodies(assets []*asset.Asset) CheckResult {
	result := CheckResult{Rule: "asset files have content beyond metadata", Passed: true}
	for _, a := range assets {
		block, err := parseBlock(a)
		if err != nil {
			result.Passed = false
			result.Problems = append(result.Problems, err.Error())
			continue
		}
		if !block.HasBody {
			result.Passed = false
			result.Problems = append(result.Problems,
				fmt.Sprintf("%s: no content beyond metadata", a.Path))
		}
	}
	return result
}

// checkNoDuplicateDependencies flags dependencies declared more than once.
func checkNoDuplicateDependencies(assets []*asset.Asset) CheckResult {
	result := CheckResult{Rule: "no duplicate dependencies", Passed: true}
	for _, a := range assets {
		block, err := parseBlock(a)
		if err != nil {
			result.Passed = false
			result.Problems = append(result.Problems, err.Error())
			continue
		}
		seen := make(map[string]bool)
		for _, dep := range block.RawDepends() {
			if seen[dep] {
				result.Passed = false
				result.Problems = append(result.Problems,
					fmt.Sprintf("%s: dependency %s declared more than once", a.QualifiedName(), dep))
			}
			seen[dep] = true
		}
	}
	return result
}

// parseBlock re-reads an asset's metadata block for rules that need raw
// occurrences rather than the normalized Asset fields.
func parseBlock(a *asset.Asset) (*metadata.Block, error) {
	source, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return metadata.Parse(a.Path, string(source), a.CommentPrefix())
}
