package dag

import (
	"gonum.org/v1/gonum/graph/topo"
)

// TypeCount is one bucket of the type histogram.
type TypeCount struct {
	FieldType string `json:"field_type" yaml:"field_type"`
	Count     int    `json:"count" yaml:"count"`
}

// DegreeLeader names the node holding a degree maximum.
type DegreeLeader struct {
	Field  string `json:"field" yaml:"field"`
	Degree int    `json:"degree" yaml:"degree"`
}

// Stats summarizes a dependency graph.
type Stats struct {
	Nodes            int           `json:"total_nodes" yaml:"total_nodes"`
	Edges            int           `json:"total_edges" yaml:"total_edges"`
	Density          float64       `json:"density" yaml:"density"`
	Connected        bool          `json:"is_connected" yaml:"is_connected"`
	Components       int           `json:"components" yaml:"components"`
	CyclicComponents int           `json:"cyclic_components" yaml:"cyclic_components"`
	TypeDistribution []TypeCount   `json:"field_types" yaml:"field_types"`
	MostDependent    *DegreeLeader `json:"most_dependent_field,omitempty" yaml:"most_dependent_field,omitempty"`
	MostUsed         *DegreeLeader `json:"most_used_field,omitempty" yaml:"most_used_field,omitempty"`
	Levels           [][]string    `json:"levels,omitempty" yaml:"levels,omitempty"`
	// Roots are fields with no inputs, Leaves fields nothing consumes.
	Roots  []string `json:"root_fields,omitempty" yaml:"root_fields,omitempty"`
	Leaves []string `json:"leaf_fields,omitempty" yaml:"leaf_fields,omitempty"`
}

// Density returns edges / (nodes·(nodes−1)), or 0 below two nodes.
func Density(nodes, edges int) float64 {
	if nodes < 2 {
		return 0
	}
	return float64(edges) / float64(nodes*(nodes-1))
}

// ComputeStats summarizes g. Degree ties go to the first inserted node.
// An empty graph is reported as not connected.
func ComputeStats(g *Graph) Stats {
	stats := Stats{
		Nodes:   g.NodeCount(),
		Edges:   g.EdgeCount(),
		Density: Density(g.NodeCount(), g.EdgeCount()),
		Roots:   g.GetRoots(),
		Leaves:  g.GetLeaves(),
	}

	view := newGonumView(g)
	if stats.Nodes > 0 {
		stats.Components = len(topo.ConnectedComponents(view.undirected))
		stats.Connected = stats.Components == 1
	}

	for _, scc := range topo.TarjanSCC(view.directed) {
		names := nodeNames(scc)
		if len(names) > 1 || g.HasEdge(names[0], names[0]) {
			stats.CyclicComponents++
		}
	}

	counts := make(map[string]int)
	for _, node := range g.Nodes() {
		if _, seen := counts[node.FieldType]; !seen {
			stats.TypeDistribution = append(stats.TypeDistribution, TypeCount{FieldType: node.FieldType})
		}
		counts[node.FieldType]++

		if in := g.InDegree(node.ID); stats.MostDependent == nil || in > stats.MostDependent.Degree {
			stats.MostDependent = &DegreeLeader{Field: node.ID, Degree: in}
		}
		if out := g.OutDegree(node.ID); stats.MostUsed == nil || out > stats.MostUsed.Degree {
			stats.MostUsed = &DegreeLeader{Field: node.ID, Degree: out}
		}
	}
	for i := range stats.TypeDistribution {
		stats.TypeDistribution[i].Count = counts[stats.TypeDistribution[i].FieldType]
	}

	if stats.CyclicComponents == 0 {
		if levels, err := g.Levels(); err == nil {
			stats.Levels = levels
		}
	}

	return stats
}
