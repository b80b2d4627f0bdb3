package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/dag"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	DOT bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph [workbook]",
		Short: "Summarize the field dependency graph",
		Long: `Build the field dependency network and print its statistics.

Nodes are fields; an edge runs from a field to each calculated field whose
formula uses it. The summary includes density, connectivity, the field type
histogram, the most dependent and most used fields and the derivation levels.

With --dot the graph is printed as a Graphviz document instead. With --export
the DOT document, the JSON graph model and the full report are written to the
output directory.`,
		Example: `  # Show graph statistics
  twbdoc graph sales.twb

  # Render the graph with Graphviz
  twbdoc graph sales.twb --dot | neato -Tpng > network.png

  # Write graph artifacts to ./docs
  twbdoc graph sales.twb --export --output-dir docs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			report, err := cmdCtx.Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			if opts.DOT {
				data, err := dag.MarshalDOT(report.DependencyGraph(), cmdCtx.Cfg.Graph.Title)
				if err != nil {
					return err
				}
				r.Println(string(data))
			} else if ok, err := r.Structured(report.Graph); ok {
				if err != nil {
					return err
				}
			} else if err := renderGraphStats(r, cmdCtx.Cfg.Graph.Title, report.Graph.Stats); err != nil {
				return err
			}

			if !boolFlag(cmd, "export", cmdCtx.Cfg.Graph.Export) {
				return nil
			}
			paths, err := cmdCtx.Engine.Export(cmd.Context(), report, cmdCtx.Cfg.OutputDir)
			if err != nil {
				return fmt.Errorf("failed to export graph: %w", err)
			}
			for _, p := range paths {
				r.Success("wrote " + p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "Print the graph as a Graphviz DOT document")
	cmd.Flags().Bool("export", false, "Write graph artifacts to the output directory (default from graph.export)")

	return cmd
}
