package dag

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/twbdoc/twbdoc/internal/fields"
)

// Node sizes, in square points, for drawing tools.
const (
	MinNodeSize     = 300
	MaxNodeSize     = 2000
	DefaultNodeSize = 500
	nodeSizeStep    = 200
)

var typeColors = map[string]string{
	fields.RawVariable.String():     "#87CEEB",
	fields.CalculatedField.String(): "#FFB6C1",
	fields.Parameter.String():       "#98FB98",
	fields.UnknownTypeName:          "#D3D3D3",
}

// LayoutHint is how a drawing tool should render a node.
type LayoutHint struct {
	Color string `json:"color" yaml:"color"`
	// Size is the marker area in square points.
	Size int `json:"size" yaml:"size"`
	// Width is the diameter in inches of a circle of area Size.
	Width float64 `json:"-" yaml:"-"`
}

// HintsFor derives the layout hint of a node from its type and consumer
// count.
func HintsFor(n *Node) LayoutHint {
	color, ok := typeColors[n.FieldType]
	if !ok {
		color = typeColors[fields.UnknownTypeName]
	}

	size := DefaultNodeSize
	if n.UsedTimes > 0 {
		size = min(max(MinNodeSize+nodeSizeStep*n.UsedTimes, MinNodeSize), MaxNodeSize)
	}

	return LayoutHint{Color: color, Size: size, Width: math.Sqrt(float64(size)) / 72}
}

// NodeModel is the exported form of a node.
type NodeModel struct {
	ID        string `json:"id" yaml:"id"`
	FieldType string `json:"field_type" yaml:"field_type"`
	UsedTimes int    `json:"used_times" yaml:"used_times"`
	NodeType  Role   `json:"node_type" yaml:"node_type"`
	LayoutHint
}

// GraphModel is the exported form of a graph with its statistics.
type GraphModel struct {
	Nodes []NodeModel `json:"nodes" yaml:"nodes"`
	Edges []Edge      `json:"edges" yaml:"edges"`
	Stats Stats       `json:"stats" yaml:"stats"`
}

// Model returns the exported form of g.
func Model(g *Graph) GraphModel {
	m := GraphModel{
		Nodes: make([]NodeModel, 0, g.NodeCount()),
		Edges: g.Edges(),
		Stats: ComputeStats(g),
	}
	if m.Edges == nil {
		m.Edges = []Edge{}
	}
	for _, n := range g.Nodes() {
		m.Nodes = append(m.Nodes, NodeModel{
			ID:         n.ID,
			FieldType:  n.FieldType,
			UsedTimes:  n.UsedTimes,
			NodeType:   n.Role,
			LayoutHint: HintsFor(n),
		})
	}
	return m
}

// MarshalJSON encodes the graph model as indented JSON.
func MarshalJSON(g *Graph) ([]byte, error) {
	data, err := json.MarshalIndent(Model(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph model: %w", err)
	}
	return data, nil
}

// dotGraph names a gonum graph and sets graph-wide DOT attributes.
type dotGraph struct {
	*simple.DirectedGraph
	name string
}

func (g dotGraph) DOTID() string { return g.name }

func (g dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	graphAttrs := encoding.Attributes{
		{Key: "label", Value: g.name},
		{Key: "labelloc", Value: "t"},
		{Key: "layout", Value: "neato"},
		{Key: "overlap", Value: "false"},
	}
	nodeAttrs := encoding.Attributes{
		{Key: "shape", Value: "circle"},
		{Key: "style", Value: "filled"},
		{Key: "fixedsize", Value: "false"},
		{Key: "fontsize", Value: "8"},
	}
	edgeAttrs := encoding.Attributes{
		{Key: "color", Value: "gray"},
		{Key: "arrowsize", Value: "0.7"},
	}
	return &graphAttrs, &nodeAttrs, &edgeAttrs
}

// MarshalDOT encodes g as a Graphviz document titled name, carrying the
// layout hints as node attributes. Self-loops are not drawn.
func MarshalDOT(g *Graph, name string) ([]byte, error) {
	view := newGonumView(g)
	data, err := dot.Marshal(dotGraph{DirectedGraph: view.directed, name: name}, "", "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode graph as dot: %w", err)
	}
	return data, nil
}
