package dag

import (
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"
)

// fieldNode adapts a Node to gonum's graph and DOT encoding interfaces.
type fieldNode struct {
	id   int64
	node *Node
}

func (n fieldNode) ID() int64 { return n.id }

// DOTID names the node by its field display name.
func (n fieldNode) DOTID() string { return n.node.ID }

// Attributes carries the layout hints into DOT output.
func (n fieldNode) Attributes() []encoding.Attribute {
	h := HintsFor(n.node)
	return []encoding.Attribute{
		{Key: "fillcolor", Value: h.Color},
		{Key: "width", Value: strconv.FormatFloat(h.Width, 'f', 2, 64)},
		{Key: "field_type", Value: n.node.FieldType},
		{Key: "used_times", Value: strconv.Itoa(n.node.UsedTimes)},
		{Key: "node_type", Value: string(n.node.Role)},
	}
}

// gonumView holds directed and undirected copies of a Graph. Node IDs are
// insertion indexes. Self-loops are dropped; simple graphs cannot hold them.
type gonumView struct {
	directed   *simple.DirectedGraph
	undirected *simple.UndirectedGraph
	nodes      map[string]fieldNode
}

func newGonumView(g *Graph) *gonumView {
	v := &gonumView{
		directed:   simple.NewDirectedGraph(),
		undirected: simple.NewUndirectedGraph(),
		nodes:      make(map[string]fieldNode, g.NodeCount()),
	}

	for i, node := range g.Nodes() {
		n := fieldNode{id: int64(i), node: node}
		v.nodes[node.ID] = n
		v.directed.AddNode(n)
		v.undirected.AddNode(n)
	}

	for _, e := range g.Edges() {
		if e.Source == e.Consumer {
			continue
		}
		from, to := v.nodes[e.Source], v.nodes[e.Consumer]
		v.directed.SetEdge(simple.Edge{F: from, T: to})
		if !v.undirected.HasEdgeBetween(from.ID(), to.ID()) {
			v.undirected.SetEdge(simple.Edge{F: from, T: to})
		}
	}

	return v
}

func nodeNames(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.(fieldNode).node.ID
	}
	return out
}
