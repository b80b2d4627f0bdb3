package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
)

// DependenciesOptions holds options for the dependencies command.
type DependenciesOptions struct {
	Limit int
}

// NewDependenciesCommand creates the dependencies command.
func NewDependenciesCommand() *cobra.Command {
	opts := &DependenciesOptions{}

	cmd := &cobra.Command{
		Use:   "dependencies [workbook]",
		Short: "Show which calculated fields use each field",
		Long: `List every field referenced by a calculated field formula, with the
calculated fields that use it.

Rows are ordered by how many calculated fields use the field, most used first.
Fields that no formula references are not listed.`,
		Example: `  # Show field dependencies
  twbdoc dependencies sales.twb

  # Show the ten most used fields as markdown
  twbdoc dependencies sales.twb --limit 10 --output markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)
			report, err := cmdCtx.Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			records := report.Dependencies
			if opts.Limit > 0 && len(records) > opts.Limit {
				records = records[:opts.Limit]
			}
			return renderSection(cmdCtx.Renderer, records, dependenciesTable(records))
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Show only the first N fields (0 = all)")

	return cmd
}

// UsageOptions holds options for the usage command.
type UsageOptions struct {
	Type   string
	Unused bool
}

// NewUsageCommand creates the usage command.
func NewUsageCommand() *cobra.Command {
	opts := &UsageOptions{}

	cmd := &cobra.Command{
		Use:   "usage [workbook]",
		Short: "Count how many worksheets and dashboards use each field",
		Long: `List the fields of the workbook with their type and the number of
worksheets and dashboards that place them on a shelf, encoding or column
instance.

Fields no view uses are left out unless --unused is given, which lists only
them (parameters included).`,
		Example: `  # Show field usage
  twbdoc usage sales.twb

  # Only calculated fields that no sheet uses
  twbdoc usage sales.twb --type "Calculated Field" --unused`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want *fields.Type
			if opts.Type != "" {
				typ, err := fields.ParseType(opts.Type)
				if err != nil {
					return fmt.Errorf("invalid --type: %w", err)
				}
				want = &typ
			}

			cmdCtx := NewCommandContext(cmd)
			report, err := cmdCtx.Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			records := report.Usage
			if opts.Unused {
				records = report.FieldUsage
			}
			records = filterUsage(records, want, opts.Unused)
			return renderSection(cmdCtx.Renderer, records, usageTable(records))
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "Only fields of this type (Raw Variable|Calculated Field|Parameter)")
	cmd.Flags().BoolVar(&opts.Unused, "unused", false, "Only fields no worksheet or dashboard uses")

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			fields.RawVariable.String(),
			fields.CalculatedField.String(),
			fields.Parameter.String(),
		}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func filterUsage(records []lineage.UsageRecord, typ *fields.Type, unused bool) []lineage.UsageRecord {
	out := make([]lineage.UsageRecord, 0, len(records))
	for _, rec := range records {
		if typ != nil && rec.FieldType != *typ {
			continue
		}
		if unused && rec.UsedTimes > 0 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// fieldNames lists names for error hints.
func fieldNames(names []string, limit int) string {
	if len(names) > limit {
		return strings.Join(names[:limit], ", ") + ", ..."
	}
	return strings.Join(names, ", ")
}
