package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/dag"
	"github.com/twbdoc/twbdoc/internal/lineage"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func datasourcesTable(rows []workbook.DatasourceInfo) output.Table {
	t := output.Table{
		Title:  "Datasources",
		Header: []string{"Index", "Caption", "Name", "Version", "Inline", "Has Connection"},
		Empty:  "No datasources found.",
	}
	for _, ds := range rows {
		t.AddRow(ds.Index, ds.Caption, ds.Name, ds.Version, yesNo(ds.Inline), yesNo(ds.HasConnection))
	}
	return t
}

func tablesTable(rows []workbook.TableInfo) output.Table {
	t := output.Table{
		Title:  "Tables",
		Header: []string{"Index", "Table Name", "Datasource Caption", "Raw Table Attr"},
		Empty:  "No tables found.",
	}
	for _, tb := range rows {
		t.AddRow(tb.Index, tb.TableName, tb.DatasourceCaption, tb.RawTable)
	}
	return t
}

func worksheetsTable(rows []workbook.WorksheetInfo) output.Table {
	t := output.Table{
		Title:  "Worksheets",
		Header: []string{"Index", "Name", "Has Data"},
		Empty:  "No worksheets found.",
	}
	for _, ws := range rows {
		t.AddRow(ws.Index, ws.Name, yesNo(ws.HasData))
	}
	return t
}

func dashboardsTable(rows []workbook.DashboardInfo) output.Table {
	t := output.Table{
		Title:  "Dashboards",
		Header: []string{"Index", "Name", "Sort Zone Enabled", "Zone Count"},
		Empty:  "No dashboards found.",
	}
	for _, db := range rows {
		t.AddRow(db.Index, db.Name, yesNo(db.SortZoneEnabled), db.ZoneCount)
	}
	return t
}

func dependenciesTable(rows []lineage.DependencyRecord) output.Table {
	t := output.Table{
		Title:  "Field Dependencies",
		Header: []string{"Field Name", "Where Used", "Used Times"},
		Empty:  "No calculated field dependencies found.",
	}
	for _, rec := range rows {
		t.AddRow(rec.FieldName, rec.WhereUsed, rec.UsedTimes)
	}
	return t
}

func usageTable(rows []lineage.UsageRecord) output.Table {
	t := output.Table{
		Title:  "Field Usage",
		Header: []string{"Field Name", "Field Type", "Used Times"},
		Empty:  "No fields found.",
	}
	for _, rec := range rows {
		t.AddRow(rec.FieldName, rec.FieldType.String(), rec.UsedTimes)
	}
	return t
}

func typeDistributionTable(counts []dag.TypeCount) output.Table {
	t := output.Table{
		Title:  "Field Types",
		Header: []string{"Field Type", "Count"},
	}
	for _, c := range counts {
		t.AddRow(c.FieldType, c.Count)
	}
	return t
}

func levelsTable(levels [][]string) output.Table {
	t := output.Table{
		Title:  "Derivation Levels",
		Header: []string{"Level", "Fields"},
	}
	for i, level := range levels {
		t.AddRow(i, strings.Join(level, ", "))
	}
	return t
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func leaderString(l *dag.DegreeLeader) string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", l.Field, l.Degree)
}

// renderGraphStats writes the graph summary in a non-structured mode.
func renderGraphStats(r *output.Renderer, title string, stats dag.Stats) error {
	if r.EffectiveMode() == output.ModeCSV {
		return r.Table(statsTable(stats))
	}

	r.Header(2, title)
	r.KeyValue("Total Nodes", strconv.Itoa(stats.Nodes))
	r.KeyValue("Total Edges", strconv.Itoa(stats.Edges))
	r.KeyValue("Density", strconv.FormatFloat(stats.Density, 'f', 4, 64))
	r.KeyValue("Connected", yesNo(stats.Connected))
	r.KeyValue("Components", strconv.Itoa(stats.Components))
	r.KeyValue("Cyclic Components", strconv.Itoa(stats.CyclicComponents))
	r.KeyValue("Most Dependent Field", leaderString(stats.MostDependent))
	r.KeyValue("Most Used Field", leaderString(stats.MostUsed))
	r.KeyValue("Root Fields", joinOrDash(stats.Roots))
	r.KeyValue("Leaf Fields", joinOrDash(stats.Leaves))
	r.Println("")

	if err := r.Table(typeDistributionTable(stats.TypeDistribution)); err != nil {
		return err
	}
	return r.Table(levelsTable(stats.Levels))
}

func statsTable(stats dag.Stats) output.Table {
	t := output.Table{Header: []string{"Metric", "Value"}}
	t.AddRow("total_nodes", stats.Nodes)
	t.AddRow("total_edges", stats.Edges)
	t.AddRow("density", strconv.FormatFloat(stats.Density, 'f', 4, 64))
	t.AddRow("is_connected", stats.Connected)
	t.AddRow("components", stats.Components)
	t.AddRow("cyclic_components", stats.CyclicComponents)
	t.AddRow("most_dependent_field", leaderString(stats.MostDependent))
	t.AddRow("most_used_field", leaderString(stats.MostUsed))
	t.AddRow("root_fields", joinOrDash(stats.Roots))
	t.AddRow("leaf_fields", joinOrDash(stats.Leaves))
	for _, c := range stats.TypeDistribution {
		t.AddRow("field_type:"+c.FieldType, c.Count)
	}
	return t
}

// renderSection writes rows as JSON/YAML when the mode is structured,
// else as the given table.
func renderSection[T any](r *output.Renderer, rows T, table output.Table) error {
	if ok, err := r.Structured(rows); ok {
		return err
	}
	return r.Table(table)
}
