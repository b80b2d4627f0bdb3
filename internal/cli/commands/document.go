package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/catalog"
	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/dag"
	"github.com/twbdoc/twbdoc/internal/engine"
	"github.com/twbdoc/twbdoc/internal/lineage"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

// DocumentOptions holds options for the document command.
type DocumentOptions struct {
	Export  bool
	Catalog bool
	Watch   bool
}

// documentView is the structured form of a document run. Disabled
// sections are omitted; enabled but empty sections encode as [].
type documentView struct {
	RunID        string                      `json:"run_id" yaml:"run_id"`
	Workbook     string                      `json:"workbook" yaml:"workbook"`
	GeneratedAt  time.Time                   `json:"generated_at" yaml:"generated_at"`
	Datasources  *[]workbook.DatasourceInfo  `json:"datasources,omitempty" yaml:"datasources,omitempty"`
	Tables       *[]workbook.TableInfo       `json:"tables,omitempty" yaml:"tables,omitempty"`
	Worksheets   *[]workbook.WorksheetInfo   `json:"worksheets,omitempty" yaml:"worksheets,omitempty"`
	Dashboards   *[]workbook.DashboardInfo   `json:"dashboards,omitempty" yaml:"dashboards,omitempty"`
	Dependencies *[]lineage.DependencyRecord `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Usage        *[]lineage.UsageRecord      `json:"usage,omitempty" yaml:"usage,omitempty"`
	Graph        *dag.GraphModel             `json:"graph,omitempty" yaml:"graph,omitempty"`
}

// NewDocumentCommand creates the document command.
func NewDocumentCommand() *cobra.Command {
	opts := &DocumentOptions{}

	cmd := &cobra.Command{
		Use:   "document [workbook]",
		Short: "Document every section of a workbook",
		Long: `Produce the full documentation of a workbook in one run: datasources,
tables, worksheets, dashboards, field dependencies, field usage and the
dependency graph summary.

Sections can be narrowed with --sections or the sections config key.

  --export   write the DOT graph, the JSON graph model and report.json
             to the output directory
  --catalog  record the run in the history catalog (see 'twbdoc history')
  --watch    keep running and re-document the workbook whenever it is saved`,
		Example: `  # Document a workbook as markdown
  twbdoc document sales.twb --output markdown > sales.md

  # Only dependencies and usage
  twbdoc document sales.twb --sections dependencies,usage

  # Export artifacts and record the run
  twbdoc document sales.twb --export --catalog

  # Regenerate on every save
  twbdoc document sales.twb --watch --export`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "Write artifacts to the output directory")
	cmd.Flags().BoolVar(&opts.Catalog, "catalog", false, "Record the run in the history catalog")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-document the workbook whenever it changes")

	return cmd
}

func runDocument(cmd *cobra.Command, args []string, opts *DocumentOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	if opts.Watch && (cmdCtx.Cfg.Workbook == StdinWorkbook || len(args) > 0 && args[0] == StdinWorkbook) {
		return fmt.Errorf("--watch needs a workbook file, not stdin")
	}

	report, err := cmdCtx.Analyze(ctx, args)
	if err != nil {
		return err
	}

	var store *catalog.Store
	if opts.Catalog {
		store, err = cmdCtx.OpenCatalog(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	if err := publish(ctx, cmdCtx, report, opts, store); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	r := cmdCtx.Renderer
	r.Warning(fmt.Sprintf("watching %s for changes (Ctrl+C to stop)", cmdCtx.Cfg.Workbook))
	return cmdCtx.Engine.Watch(ctx, cmdCtx.Cfg.Workbook, func(report *engine.Report, err error) {
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := publish(ctx, cmdCtx, report, opts, store); err != nil {
			r.Error(err.Error())
		}
	})
}

// publish renders the report, then exports and records it as requested.
func publish(ctx context.Context, cmdCtx *CommandContext, report *engine.Report, opts *DocumentOptions, store *catalog.Store) error {
	r := cmdCtx.Renderer
	if err := renderDocument(r, cmdCtx.Cfg, report); err != nil {
		return err
	}

	if opts.Export {
		paths, err := cmdCtx.Engine.Export(ctx, report, cmdCtx.Cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		for _, p := range paths {
			r.Success("wrote " + p)
		}
	}

	if store != nil {
		if err := store.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		cmdCtx.Logger.Info("recorded run", slog.String("id", report.RunID))
		r.Success("recorded run " + report.RunID)
	}
	return nil
}

func renderDocument(r *output.Renderer, cfg *config.Config, report *engine.Report) error {
	if ok, err := r.Structured(newDocumentView(cfg, report)); ok {
		return err
	}

	if r.EffectiveMode() != output.ModeCSV {
		r.Header(1, "Workbook Documentation: "+filepath.Base(report.Workbook))
		r.KeyValue("Run", report.RunID)
		r.KeyValue("Generated", report.GeneratedAt.Format(time.RFC3339))
		r.KeyValue("Fields", fmt.Sprintf("%d (%d parameters)", len(report.Fields), len(report.Parameters)))
		r.Println("")
	}

	steps := []struct {
		section string
		render  func() error
	}{
		{config.SectionDatasources, func() error { return r.Table(datasourcesTable(report.Datasources)) }},
		{config.SectionTables, func() error { return r.Table(tablesTable(report.Tables)) }},
		{config.SectionWorksheets, func() error { return r.Table(worksheetsTable(report.Worksheets)) }},
		{config.SectionDashboards, func() error { return r.Table(dashboardsTable(report.Dashboards)) }},
		{config.SectionDependencies, func() error { return r.Table(dependenciesTable(report.Dependencies)) }},
		{config.SectionUsage, func() error { return r.Table(usageTable(report.Usage)) }},
		{config.SectionGraph, func() error { return renderGraphStats(r, cfg.Graph.Title, report.Graph.Stats) }},
	}
	for _, step := range steps {
		if !cfg.HasSection(step.section) {
			continue
		}
		if err := step.render(); err != nil {
			return err
		}
	}
	return nil
}

func newDocumentView(cfg *config.Config, report *engine.Report) documentView {
	view := documentView{
		RunID:       report.RunID,
		Workbook:    report.Workbook,
		GeneratedAt: report.GeneratedAt,
	}
	if cfg.HasSection(config.SectionDatasources) {
		view.Datasources = &report.Datasources
	}
	if cfg.HasSection(config.SectionTables) {
		view.Tables = &report.Tables
	}
	if cfg.HasSection(config.SectionWorksheets) {
		view.Worksheets = &report.Worksheets
	}
	if cfg.HasSection(config.SectionDashboards) {
		view.Dashboards = &report.Dashboards
	}
	if cfg.HasSection(config.SectionDependencies) {
		view.Dependencies = &report.Dependencies
	}
	if cfg.HasSection(config.SectionUsage) {
		view.Usage = &report.Usage
	}
	if cfg.HasSection(config.SectionGraph) {
		view.Graph = &report.Graph
	}
	return view
}
