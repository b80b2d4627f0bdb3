package commands

import (
	"fmt"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/dag"
	"github.com/twbdoc/twbdoc/internal/engine"
	"github.com/twbdoc/twbdoc/internal/fields"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Upstream   bool
	Downstream bool
	Depth      int
	DOT        bool
}

// LineageView is the lineage of one field.
type LineageView struct {
	Field      string     `json:"field" yaml:"field"`
	FieldType  string     `json:"field_type" yaml:"field_type"`
	Upstream   []string   `json:"upstream" yaml:"upstream"`
	Downstream []string   `json:"downstream" yaml:"downstream"`
	Edges      []dag.Edge `json:"edges" yaml:"edges"`
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <field>",
		Short: "Show lineage for a field",
		Long: `Display the fields a field is derived from (upstream) and the calculated
fields derived from it (downstream).

The field may be given by display name (Profit Ratio) or by its internal
bracketed name ([Calculation_1001]).`,
		Example: `  # Show full lineage for a field
  twbdoc lineage "Profit Ratio" -w sales.twb

  # Show only downstream dependents
  twbdoc lineage Sales -w sales.twb --upstream=false

  # Limit traversal depth
  twbdoc lineage Sales -w sales.twb --depth 1

  # Draw the neighborhood with Graphviz
  twbdoc lineage Sales -w sales.twb --dot | dot -Tsvg > sales.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream fields")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream fields")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "Max traversal depth (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "Print the lineage subgraph as a Graphviz DOT document")

	return cmd
}

func runLineage(cmd *cobra.Command, name string, opts *LineageOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	report, err := cmdCtx.Analyze(cmd.Context(), nil)
	if err != nil {
		return err
	}

	g := report.DependencyGraph()
	id, err := resolveField(report, g, name)
	if err != nil {
		return err
	}

	view, sub := buildLineage(g, id, opts)
	if opts.DOT {
		data, err := dag.MarshalDOT(sub, id)
		if err != nil {
			return err
		}
		r.Println(string(data))
		return nil
	}

	if ok, err := r.Structured(view); ok {
		return err
	}
	return lineageText(r, view, opts)
}

// resolveField maps a display name or bracketed key onto a graph node.
func resolveField(report *engine.Report, g *dag.Graph, name string) (string, error) {
	if _, ok := g.GetNode(name); ok {
		return name, nil
	}

	key := fields.Key(name)
	if !key.IsBracketed() {
		key = fields.Key("[" + name + "]")
	}
	for _, defs := range [][]fields.Definition{report.Fields, report.Parameters} {
		for _, def := range defs {
			if def.Key != key {
				continue
			}
			if _, ok := g.GetNode(def.DisplayName); ok {
				return def.DisplayName, nil
			}
			return "", fmt.Errorf("field %s (%s) has no dependencies", def.DisplayName, def.Key)
		}
	}
	if _, ok := g.GetNode(key.Stripped()); ok {
		return key.Stripped(), nil
	}

	var known []string
	for _, n := range g.Nodes() {
		known = append(known, n.ID)
	}
	sort.Strings(known)
	return "", fmt.Errorf("field not found in dependency graph: %s\nHint: known fields are %s", name, fieldNames(known, 10))
}

// buildLineage collects the lineage of id and the subgraph spanning it.
func buildLineage(g *dag.Graph, id string, opts *LineageOptions) (LineageView, *dag.Graph) {
	view := LineageView{
		Field:      id,
		Upstream:   []string{},
		Downstream: []string{},
	}
	if n, ok := g.GetNode(id); ok {
		view.FieldType = n.FieldType
	}

	if opts.Upstream {
		view.Upstream = walk(id, opts.Depth, g.Upstream, g.GetParents)
	}
	if opts.Downstream {
		view.Downstream = walk(id, opts.Depth, g.Downstream, g.GetChildren)
	}

	var sub *dag.Graph
	if opts.Depth == 0 && opts.Upstream && opts.Downstream {
		sub = g.Neighborhood(id)
	} else {
		ids := append([]string{id}, view.Upstream...)
		sub = g.Subgraph(append(ids, view.Downstream...))
	}
	view.Edges = append([]dag.Edge{}, sub.Edges()...)
	return view, sub
}

// walk returns the fields reachable from id, excluding id itself. Unlimited
// walks use the graph's closure; bounded ones step with next.
func walk(id string, maxDepth int, closure func(...string) []string, next func(string) []string) []string {
	if maxDepth > 0 {
		return traverse(id, maxDepth, next)
	}
	return slices.DeleteFunc(closure(id), func(n string) bool { return n == id })
}

// traverse walks next breadth-first from id, up to maxDepth hops. The start
// field is excluded.
func traverse(id string, maxDepth int, next func(string) []string) []string {
	visited := map[string]bool{id: true}
	result := []string{}
	frontier := []string{id}

	for depth := 1; len(frontier) > 0 && depth <= maxDepth; depth++ {
		var nextFrontier []string
		for _, cur := range frontier {
			for _, n := range next(cur) {
				if visited[n] {
					continue
				}
				visited[n] = true
				result = append(result, n)
				nextFrontier = append(nextFrontier, n)
			}
		}
		frontier = nextFrontier
	}

	sort.Strings(result)
	return result
}

// lineageText outputs lineage in text, markdown or CSV format.
func lineageText(r *output.Renderer, view LineageView, opts *LineageOptions) error {
	if r.EffectiveMode() == output.ModeCSV {
		t := output.Table{Header: []string{"Direction", "Field"}}
		for _, f := range view.Upstream {
			t.AddRow("upstream", f)
		}
		for _, f := range view.Downstream {
			t.AddRow("downstream", f)
		}
		return r.Table(t)
	}

	r.Header(1, "Lineage for: "+view.Field)
	r.KeyValue("Field Type", view.FieldType)
	r.Println("")

	section := func(title string, names []string) {
		r.Header(2, fmt.Sprintf("%s (%d)", title, len(names)))
		for _, n := range names {
			r.Printf("- %s\n", n)
		}
		r.Println("")
	}
	if opts.Upstream {
		section("Upstream fields", view.Upstream)
	}
	if opts.Downstream {
		section("Downstream fields", view.Downstream)
	}
	return nil
}
