package engine

import (
	"sort"

	"github.com/barefootlabs/bdp/internal/asset"
)

// Plan computes the materialization order. With no targets the whole graph
// is planned; with targets the plan covers the targets plus their transitive
// dependencies, in an order where every dependency precedes its dependents.
// Plans are recomputed from the graph on every call and are deterministic
// for an identical asset set.
func (e *Engine) Plan(targets []string) ([]*asset.Asset, error) {
	graph := e.graph

	if len(targets) > 0 {
		scope := make(map[string]bool)
		for _, target := range targets {
			if _, exists := e.assets[target]; !exists {
				return nil, &UnknownTargetError{Target: target}
			}
			scope[target] = true
			for _, dep := range graph.Upstream(target) {
				scope[dep] = true
			}
		}

		ids := make([]string, 0, len(scope))
		for id := range scope {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		graph = graph.Subgraph(ids)
	}

	sorted, err := graph.TopologicalSort()
	if err != nil {
		// Discover already rejected cyclic graphs.
		return nil, err
	}

	plan := make([]*asset.Asset, len(sorted))
	for i, node := range sorted {
		plan[i] = node.Data.(*asset.Asset)
	}
	return plan, nil
}
