package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/testutil"
	"github.com/twbdoc/twbdoc/internal/dag"
	"github.com/twbdoc/twbdoc/internal/engine"
	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewDatasourcesCommand(), "datasources [workbook]", nil},
		{NewTablesCommand(), "tables [workbook]", nil},
		{NewWorksheetsCommand(), "worksheets [workbook]", nil},
		{NewDashboardsCommand(), "dashboards [workbook]", nil},
		{NewDependenciesCommand(), "dependencies [workbook]", []string{"limit"}},
		{NewUsageCommand(), "usage [workbook]", []string{"type", "unused"}},
		{NewGraphCommand(), "graph [workbook]", []string{"dot", "export"}},
		{NewLineageCommand(), "lineage <field>", []string{"upstream", "downstream", "depth", "dot"}},
		{NewDocumentCommand(), "document [workbook]", []string{"export", "catalog", "watch"}},
		{NewHistoryCommand(), "history", []string{"run", "limit", "all"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestStructureCommand_ExplicitWorkbook(t *testing.T) {
	config.ResetConfig()
	cmd := NewWorksheetsCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{testutil.Fixture(t)})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Sales by Date")
	assert.Contains(t, out.String(), "Profitability")
}

func TestFilterUsage(t *testing.T) {
	records := []lineage.UsageRecord{
		{FieldName: "Sales", FieldType: fields.RawVariable, UsedTimes: 3},
		{FieldName: "Profit Ratio", FieldType: fields.CalculatedField, UsedTimes: 1},
		{FieldName: "Margin Flag", FieldType: fields.CalculatedField, UsedTimes: 0},
		{FieldName: "Growth Rate", FieldType: fields.Parameter, UsedTimes: 0},
	}
	calc := fields.CalculatedField

	tests := []struct {
		name   string
		typ    *fields.Type
		unused bool
		want   []string
	}{
		{"all", nil, false, []string{"Sales", "Profit Ratio", "Margin Flag", "Growth Rate"}},
		{"by type", &calc, false, []string{"Profit Ratio", "Margin Flag"}},
		{"unused", nil, true, []string{"Margin Flag", "Growth Rate"}},
		{"unused calculated", &calc, true, []string{"Margin Flag"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, rec := range filterUsage(records, tt.typ, tt.unused) {
				got = append(got, rec.FieldName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWalk(t *testing.T) {
	g := dag.NewGraph()
	for _, e := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"A", "E"}, {"D", "B"}} {
		g.AddNode(e[0])
		g.AddNode(e[1])
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}

	tests := []struct {
		name  string
		start string
		depth int
		up    bool
		want  []string
	}{
		{"downstream unlimited", "A", 0, false, []string{"B", "C", "D", "E"}},
		{"downstream depth 1", "A", 1, false, []string{"B", "E"}},
		{"downstream depth 2", "A", 2, false, []string{"B", "C", "E"}},
		{"upstream unlimited", "C", 0, true, []string{"A", "B", "D"}},
		{"upstream depth 1", "C", 1, true, []string{"B"}},
		{"start on a cycle is excluded", "B", 0, false, []string{"C", "D"}},
		{"leaf", "E", 0, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closure, next := g.Downstream, g.GetChildren
			if tt.up {
				closure, next = g.Upstream, g.GetParents
			}
			assert.Equal(t, tt.want, walk(tt.start, tt.depth, closure, next))
		})
	}
}

func TestBuildLineage_Subgraph(t *testing.T) {
	g := dag.NewGraph()
	for _, e := range [][2]string{{"A", "B"}, {"B", "C"}, {"X", "Y"}} {
		g.AddNode(e[0])
		g.AddNode(e[1])
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}

	view, sub := buildLineage(g, "B", &LineageOptions{Upstream: true, Downstream: true})
	assert.Equal(t, []string{"A"}, view.Upstream)
	assert.Equal(t, []string{"C"}, view.Downstream)
	assert.Equal(t, 3, sub.NodeCount())
	assert.Equal(t, []dag.Edge{{Source: "A", Consumer: "B"}, {Source: "B", Consumer: "C"}}, view.Edges)

	view, sub = buildLineage(g, "B", &LineageOptions{Downstream: true})
	assert.Empty(t, view.Upstream)
	assert.Equal(t, 2, sub.NodeCount())
	assert.Equal(t, []dag.Edge{{Source: "B", Consumer: "C"}}, view.Edges)
}

func TestNewDocumentView_Sections(t *testing.T) {
	report := &engine.Report{
		Datasources:  nil,
		Dependencies: []lineage.DependencyRecord{},
	}
	cfg := config.Default()
	cfg.Sections = []string{config.SectionDependencies}

	view := newDocumentView(cfg, report)
	assert.Nil(t, view.Datasources)
	assert.Nil(t, view.Graph)
	require.NotNil(t, view.Dependencies)
	assert.Empty(t, *view.Dependencies)
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, "a, b", fieldNames([]string{"a", "b"}, 10))
	assert.Equal(t, "a, b, ...", fieldNames([]string{"a", "b", "c"}, 2))
}
