package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/catalog"
	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/lineage"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Run   string
	Limit int
	All   bool
}

// runDetail is the structured form of one recorded run.
type runDetail struct {
	catalog.Run  `yaml:",inline"`
	Dependencies []lineage.DependencyRecord `json:"dependencies" yaml:"dependencies"`
	Usage        []lineage.UsageRecord      `json:"usage" yaml:"usage"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List documentation runs recorded in the catalog",
		Long: `List the runs recorded by 'twbdoc document --catalog', most recent first.

Runs are filtered to the configured workbook unless --all is given. Use --run
to show the dependency and usage records stored for one run.`,
		Example: `  # Recent runs of a workbook
  twbdoc history -w sales.twb

  # Every recorded run
  twbdoc history --all

  # Records of one run
  twbdoc history --run 4b0c6c9e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Run, "run", "", "Show the records of one run")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "List runs of every workbook")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	store, err := cmdCtx.OpenCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.Run != "" {
		run, err := store.GetRun(ctx, opts.Run)
		if err != nil {
			return err
		}
		deps, err := store.Dependencies(ctx, run.ID)
		if err != nil {
			return err
		}
		usage, err := store.Usage(ctx, run.ID)
		if err != nil {
			return err
		}
		return renderRunDetail(r, runDetail{Run: *run, Dependencies: deps, Usage: usage})
	}

	workbook := cmdCtx.Cfg.Workbook
	if opts.All {
		workbook = ""
	}
	runs, err := store.ListRuns(ctx, workbook, opts.Limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []catalog.Run{}
	}
	return renderSection(r, runs, runsTable(runs))
}

func runsTable(runs []catalog.Run) output.Table {
	t := output.Table{
		Title:  "Recorded Runs",
		Header: []string{"Run", "Workbook", "Generated", "Fields", "Nodes", "Edges", "Density", "Connected"},
		Empty:  "No runs recorded. Record one with 'twbdoc document --catalog'.",
	}
	for _, run := range runs {
		t.AddRow(run.ID, run.Workbook, run.GeneratedAt.Format(time.RFC3339), run.FieldCount,
			run.NodeCount, run.EdgeCount, strconv.FormatFloat(run.Density, 'f', 4, 64), yesNo(run.Connected))
	}
	return t
}

func renderRunDetail(r *output.Renderer, d runDetail) error {
	if ok, err := r.Structured(d); ok {
		return err
	}
	if r.EffectiveMode() != output.ModeCSV {
		r.Header(1, "Run "+d.ID)
		r.KeyValue("Workbook", d.Workbook)
		r.KeyValue("Generated", d.GeneratedAt.Format(time.RFC3339))
		r.KeyValue("Fields", fmt.Sprintf("%d (%d parameters)", d.FieldCount, d.ParameterCount))
		r.KeyValue("Graph", fmt.Sprintf("%d nodes, %d edges", d.NodeCount, d.EdgeCount))
		r.Println("")
	}
	if err := r.Table(dependenciesTable(d.Dependencies)); err != nil {
		return err
	}
	return r.Table(usageTable(d.Usage))
}
