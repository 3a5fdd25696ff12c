// Package dag provides the directed acyclic graph over asset dependencies:
// cycle detection, deterministic topological ordering, and transitive
// dependency closure.
package dag

import (
	"fmt"
	"sort"
)

// Node represents a node in the DAG.
type Node struct {
	// ID is the unique identifier (qualified asset name)
	ID string
	// Data holds arbitrary node data
	Data any
}

// Graph represents a directed acyclic graph. Edges run from a dependency
// to each of its dependents.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string // dependency -> dependents
	parents  map[string][]string // dependent -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node to the graph, updating its data if it already exists.
func (g *Graph) AddNode(id string, data any) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.children[id] = []string{}
		g.parents[id] = []string{}
		return
	}
	g.nodes[id].Data = data
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.children[parentID], childID) {
		g.children[parentID] = append(g.children[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Parents returns the dependencies of a node, sorted.
func (g *Graph) Parents(id string) []string {
	out := append([]string(nil), g.parents[id]...)
	sort.Strings(out)
	return out
}

// Children returns the dependents of a node, sorted.
func (g *Graph) Children(id string) []string {
	out := append([]string(nil), g.children[id]...)
	sort.Strings(out)
	return out
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, deps := range g.children {
		count += len(deps)
	}
	return count
}

// IDs returns all node IDs, sorted.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasCycle returns true if the graph contains a cycle, along with the cycle
// path. The path starts and ends at the same node.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.Children(id) {
			if !visited[childID] {
				cameFrom[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Back-edge to a node still being visited: reconstruct
				// the cycle for diagnostics.
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.IDs() {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns nodes ordered so that every dependency precedes
// its dependents. Ties between unrelated nodes break by ID, so repeated
// sorts of the same graph always produce the same sequence.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		for _, parentID := range g.Parents(id) {
			visit(parentID)
		}

		result = append(result, g.nodes[id])
	}

	for _, id := range g.IDs() {
		visit(id)
	}

	return result, nil
}

// Upstream returns the transitive dependency closure of a node: every node
// reachable by following dependency edges upward. The node itself is not
// included. Result is sorted.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !upstream[parentID] {
				upstream[parentID] = true
				mark(parentID)
			}
		}
	}

	mark(id)

	result := make([]string, 0, len(upstream))
	for nodeID := range upstream {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Subgraph returns a new graph containing only the specified nodes and the
// edges between them.
func (g *Graph) Subgraph(nodeIDs []string) *Graph {
	sub := NewGraph()
	nodeSet := make(map[string]bool, len(nodeIDs))

	for _, id := range nodeIDs {
		if node, exists := g.nodes[id]; exists {
			nodeSet[id] = true
			sub.AddNode(id, node.Data)
		}
	}

	for _, id := range nodeIDs {
		for _, childID := range g.children[id] {
			if nodeSet[childID] {
				_ = sub.AddEdge(id, childID)
			}
		}
	}

	return sub
}

// ExecutionLevels groups nodes by dependency depth. Nodes at level N only
// depend on nodes at levels below N, so a level can execute in parallel
// once every earlier level has committed. Level 0 has no dependencies.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		maxParent := 0
		for _, parentID := range parents {
			if pl := level(parentID); pl > maxParent {
				maxParent = pl
			}
		}
		assigned[id] = maxParent + 1
		return maxParent + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if l := level(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}

	return levels, nil
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
