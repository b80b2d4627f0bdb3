// Package dag provides the directed field-dependency graph.
// It supports traversal, cycle detection, derivation levels, statistics and
// export for external drawing tools.
package dag

import (
	"fmt"
	"slices"
	"sort"
)

// Role tells whether a node feeds other fields or only consumes them.
type Role string

// Node roles.
const (
	RoleSource    Role = "source"
	RoleDependent Role = "dependent"
)

// Node represents a field in the graph.
type Node struct {
	// ID is the field's display name
	ID string
	// FieldType is the resolved type label, "Unknown" when unresolved
	FieldType string
	// UsedTimes is the number of fields consuming this one
	UsedTimes int
	Role      Role
}

// Edge is a directed source → consumer pair.
type Edge struct {
	Source   string `json:"source" yaml:"source"`
	Consumer string `json:"consumer" yaml:"consumer"`
}

// Graph represents a directed field graph. Nodes and edges keep insertion
// order; edges form a set. Self-loops are allowed.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	edges   map[string][]string // source -> consumers
	parents map[string][]string // consumer -> sources
	edgeSeq []Edge
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode returns the node for id, creating it if needed. Callers update
// the returned node's attributes in place.
func (g *Graph) AddNode(id string) *Node {
	if node, exists := g.nodes[id]; exists {
		return node
	}
	node := &Node{ID: id}
	g.nodes[id] = node
	g.order = append(g.order, id)
	g.edges[id] = []string{}
	g.parents[id] = []string{}
	return node
}

// AddEdge adds a directed edge from source to consumer. Adding an existing
// edge is a no-op.
func (g *Graph) AddEdge(sourceID, consumerID string) error {
	if _, exists := g.nodes[sourceID]; !exists {
		return fmt.Errorf("source node %q does not exist", sourceID)
	}
	if _, exists := g.nodes[consumerID]; !exists {
		return fmt.Errorf("consumer node %q does not exist", consumerID)
	}

	if slices.Contains(g.edges[sourceID], consumerID) {
		return nil
	}
	g.edges[sourceID] = append(g.edges[sourceID], consumerID)
	g.parents[consumerID] = append(g.parents[consumerID], sourceID)
	g.edgeSeq = append(g.edgeSeq, Edge{Source: sourceID, Consumer: consumerID})
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// HasEdge reports whether source → consumer exists.
func (g *Graph) HasEdge(sourceID, consumerID string) bool {
	return slices.Contains(g.edges[sourceID], consumerID)
}

// GetParents returns the direct inputs of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the direct consumers of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// InDegree returns the number of direct inputs of a node.
func (g *Graph) InDegree(id string) int {
	return len(g.parents[id])
}

// OutDegree returns the number of direct consumers of a node.
func (g *Graph) OutDegree(id string) int {
	return len(g.edges[id])
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edgeSeq)
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edgeSeq)
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}

	return false, nil
}

// Levels groups fields by derivation depth. Level 0 holds fields with no
// inputs; a field sits one level above its deepest input.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}
		level := 0
		for _, parentID := range g.parents[id] {
			level = max(level, getLevel(parentID)+1)
		}
		assigned[id] = level
		return level
	}

	maxLevel := -1
	for _, id := range g.order {
		maxLevel = max(maxLevel, getLevel(id))
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range g.order {
		levels[assigned[id]] = append(levels[assigned[id]], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Downstream returns every field derived, directly or not, from the given
// fields. The given fields themselves are not included.
func (g *Graph) Downstream(ids ...string) []string {
	return g.reach(ids, g.edges)
}

// Upstream returns every field the given fields derive from, directly or
// not. The given fields themselves are not included unless they sit on a cycle.
func (g *Graph) Upstream(ids ...string) []string {
	return g.reach(ids, g.parents)
}

func (g *Graph) reach(start []string, next map[string][]string) []string {
	seen := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				mark(n)
			}
		}
	}
	for _, id := range start {
		mark(id)
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// GetRoots returns fields with no inputs.
func (g *Graph) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// GetLeaves returns fields nothing consumes.
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a new graph containing only the specified nodes and the
// edges between them. Node attributes are copied.
func (g *Graph) Subgraph(nodeIDs []string) *Graph {
	subgraph := NewGraph()
	nodeSet := make(map[string]bool)

	for _, id := range g.order {
		if !slices.Contains(nodeIDs, id) {
			continue
		}
		nodeSet[id] = true
		src := g.nodes[id]
		n := subgraph.AddNode(id)
		n.FieldType, n.UsedTimes, n.Role = src.FieldType, src.UsedTimes, src.Role
	}

	for _, e := range g.edgeSeq {
		if nodeSet[e.Source] && nodeSet[e.Consumer] {
			_ = subgraph.AddEdge(e.Source, e.Consumer)
		}
	}

	return subgraph
}

// Neighborhood returns the subgraph of id together with everything upstream
// and downstream of it.
func (g *Graph) Neighborhood(id string) *Graph {
	ids := append([]string{id}, g.Upstream(id)...)
	ids = append(ids, g.Downstream(id)...)
	return g.Subgraph(ids)
}
