package commands

import (
	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/engine"
)

// structureCommand describes one workbook listing command.
type structureCommand struct {
	use     string
	short   string
	long    string
	example string
	render  func(r *output.Renderer, report *engine.Report) error
}

func newStructureCommand(sc structureCommand) *cobra.Command {
	return &cobra.Command{
		Use:     sc.use + " [workbook]",
		Short:   sc.short,
		Long:    sc.long,
		Example: sc.example,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			report, err := cmdCtx.Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}
			return sc.render(cmdCtx.Renderer, report)
		},
	}
}

// NewDatasourcesCommand creates the datasources command.
func NewDatasourcesCommand() *cobra.Command {
	return newStructureCommand(structureCommand{
		use:   "datasources",
		short: "List the workbook's datasources",
		long: `List every datasource of the workbook except the parameters collection.

Datasources sharing a caption are listed once. Datasources without a caption
are named "Datasource <n>" after their position in the workbook.`,
		example: `  # List datasources of a workbook
  twbdoc datasources sales.twb

  # Output as JSON
  twbdoc datasources -w sales.twb --output json`,
		render: func(r *output.Renderer, report *engine.Report) error {
			return renderSection(r, report.Datasources, datasourcesTable(report.Datasources))
		},
	})
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return newStructureCommand(structureCommand{
		use:   "tables",
		short: "List the tables behind each datasource",
		long: `List the physical tables referenced by the workbook's datasources.

Default Excel sheet names (Sheet1..Sheet5) and one-character names are skipped,
and a trailing .csv is removed from the table name.`,
		example: `  # List tables as CSV
  twbdoc tables sales.twb --output csv`,
		render: func(r *output.Renderer, report *engine.Report) error {
			return renderSection(r, report.Tables, tablesTable(report.Tables))
		},
	})
}

// NewWorksheetsCommand creates the worksheets command.
func NewWorksheetsCommand() *cobra.Command {
	return newStructureCommand(structureCommand{
		use:   "worksheets",
		short: "List the workbook's worksheets",
		long:  `List every worksheet and whether it carries embedded datasource data.`,
		example: `  # List worksheets
  twbdoc worksheets sales.twb`,
		render: func(r *output.Renderer, report *engine.Report) error {
			return renderSection(r, report.Worksheets, worksheetsTable(report.Worksheets))
		},
	})
}

// NewDashboardsCommand creates the dashboards command.
func NewDashboardsCommand() *cobra.Command {
	return newStructureCommand(structureCommand{
		use:   "dashboards",
		short: "List the workbook's dashboards",
		long:  `List every dashboard with its zone count and sort-zone tab order flag.`,
		example: `  # List dashboards as YAML
  twbdoc dashboards sales.twb --output yaml`,
		render: func(r *output.Renderer, report *engine.Report) error {
			return renderSection(r, report.Dashboards, dashboardsTable(report.Dashboards))
		},
	})
}
