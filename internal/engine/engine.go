// Package engine runs the documentation pipeline over one workbook.
// It parses the workbook once, then derives every section of the report
// in dependency order: field index, structural listings, dependencies,
// usage and the dependency graph.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/twbdoc/twbdoc/internal/dag"
	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

// GraphTitle is the default name of the exported dependency graph.
const GraphTitle = "Field Dependencies Network"

// Engine produces documentation reports.
type Engine struct {
	logger   *slog.Logger
	now      func() time.Time
	debounce time.Duration
	title    string
}

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Clock overrides time.Now for report timestamps
	Clock func() time.Time
	// Debounce is the quiet period before a watched change is processed
	Debounce time.Duration
	// GraphTitle names the exported graph (default GraphTitle)
	GraphTitle string
}

// Report is the full documentation of one workbook.
type Report struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Workbook    string    `json:"workbook" yaml:"workbook"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Datasources []workbook.DatasourceInfo `json:"datasources" yaml:"datasources"`
	Tables      []workbook.TableInfo      `json:"tables" yaml:"tables"`
	Worksheets  []workbook.WorksheetInfo  `json:"worksheets" yaml:"worksheets"`
	Dashboards  []workbook.DashboardInfo  `json:"dashboards" yaml:"dashboards"`

	Fields       []fields.Definition        `json:"fields" yaml:"fields"`
	Parameters   []fields.Definition        `json:"parameters" yaml:"parameters"`
	Dependencies []lineage.DependencyRecord `json:"dependencies" yaml:"dependencies"`
	Usage        []lineage.UsageRecord      `json:"usage" yaml:"usage"`
	FieldUsage   []lineage.UsageRecord      `json:"field_usage" yaml:"field_usage"`
	Graph        dag.GraphModel             `json:"graph" yaml:"graph"`

	graph *dag.Graph
}

// DependencyGraph returns the graph the report's Graph section describes.
// A report decoded from JSON rebuilds it from its dependencies, typing nodes
// from its field and parameter definitions.
func (r *Report) DependencyGraph() *dag.Graph {
	if r.graph == nil {
		r.graph = dag.BuildDependencyGraph(r.Dependencies, newDefinitionTypes(r.Fields, r.Parameters))
	}
	return r.graph
}

// definitionTypes resolves display names like fields.Index.TypeOf:
// ordinary fields first, then parameters by display name or bare key.
type definitionTypes map[string]fields.Type

func newDefinitionTypes(defs, params []fields.Definition) definitionTypes {
	types := make(definitionTypes, len(defs)+2*len(params))
	add := func(name string, t fields.Type) {
		if _, exists := types[name]; !exists {
			types[name] = t
		}
	}
	for _, def := range defs {
		add(def.DisplayName, def.Type)
	}
	for _, p := range params {
		add(p.DisplayName, p.Type)
		add(p.Key.Stripped(), p.Type)
	}
	return types
}

// TypeOf implements dag.TypeResolver.
func (d definitionTypes) TypeOf(displayName string) (fields.Type, bool) {
	t, ok := d[displayName]
	return t, ok
}

// New creates a new engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	title := cfg.GraphTitle
	if title == "" {
		title = GraphTitle
	}
	return &Engine{logger: logger, now: now, debounce: debounce, title: title}
}

// Analyze loads the workbook at path and documents it.
func (e *Engine) Analyze(ctx context.Context, path string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("loading workbook", slog.String("path", path))
	wb, err := workbook.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load workbook: %w", err)
	}

	return e.AnalyzeWorkbook(wb), nil
}

// AnalyzeReader documents a workbook read from r. name labels the report.
func (e *Engine) AnalyzeReader(ctx context.Context, name string, r io.Reader) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("reading workbook", slog.String("name", name))
	wb, err := workbook.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", name, err)
	}
	wb.Path = name

	return e.AnalyzeWorkbook(wb), nil
}

// AnalyzeWorkbook documents an already parsed workbook.
func (e *Engine) AnalyzeWorkbook(wb *workbook.Workbook) *Report {
	idx := fields.BuildIndex(wb)
	e.logger.Debug("indexed fields",
		slog.Int("fields", idx.Len()),
		slog.Int("parameters", len(idx.Parameters())))

	calcs := lineage.CalculatedFields(wb)
	depMap := lineage.AggregateDependencies(calcs, idx)
	deps := depMap.Records()
	e.logger.Debug("aggregated dependencies",
		slog.Int("calculated_fields", len(calcs)),
		slog.Int("sources", depMap.Len()))

	counts := lineage.CountUsage(wb)
	usage := lineage.UsageRecords(counts, idx)
	fieldUsage := lineage.FieldUsage(counts, idx)
	e.logger.Debug("counted usage",
		slog.Int("used", len(usage)),
		slog.Int("fields", len(fieldUsage)))

	g := dag.BuildDependencyGraph(deps, idx)
	model := dag.Model(g)
	e.logger.Debug("built dependency graph",
		slog.Int("nodes", model.Stats.Nodes),
		slog.Int("edges", model.Stats.Edges),
		slog.Bool("connected", model.Stats.Connected))

	return &Report{
		RunID:        uuid.New().String(),
		Workbook:     wb.Path,
		GeneratedAt:  e.now().UTC(),
		Datasources:  orEmpty(workbook.ExtractDatasources(wb)),
		Tables:       orEmpty(workbook.ExtractTables(wb)),
		Worksheets:   orEmpty(workbook.ExtractWorksheets(wb)),
		Dashboards:   orEmpty(workbook.ExtractDashboards(wb)),
		Fields:       idx.Definitions(),
		Parameters:   idx.Parameters(),
		Dependencies: orEmpty(deps),
		Usage:        orEmpty(usage),
		FieldUsage:   orEmpty(fieldUsage),
		Graph:        model,
		graph:        g,
	}
}

// orEmpty keeps empty sections as [] rather than null in JSON.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
