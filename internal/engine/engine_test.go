package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
	"github.com/twbdoc/twbdoc/internal/testutil"
	"github.com/twbdoc/twbdoc/internal/workbook"
)

const fixturePath = "../workbook/testdata/superstore.twb"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(Config{
		Logger:   testutil.NewTestLogger(t),
		Clock:    func() time.Time { return fixed },
		Debounce: 20 * time.Millisecond,
	})
}

func TestAnalyze_Fixture(t *testing.T) {
	e := newTestEngine(t)

	report, err := e.Analyze(context.Background(), fixturePath)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, fixturePath, report.Workbook)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), report.GeneratedAt)
	assert.Len(t, report.Datasources, 1)
	assert.Len(t, report.Tables, 2)
	assert.Len(t, report.Worksheets, 2)
	assert.Len(t, report.Dashboards, 1)
	assert.Len(t, report.Fields, 8)
	assert.Len(t, report.Parameters, 1)
	require.Len(t, report.Dependencies, 4)
	assert.Equal(t, "Sales", report.Dependencies[0].FieldName)
	require.Len(t, report.Usage, 4)
	assert.Equal(t, "Sales", report.Usage[0].FieldName)
	require.Len(t, report.FieldUsage, 8)
	assert.Equal(t, "Profit", report.FieldUsage[7].FieldName)
	assert.Zero(t, report.FieldUsage[7].UsedTimes)
	assert.Equal(t, 6, report.Graph.Stats.Nodes)
	assert.Equal(t, 5, report.DependencyGraph().EdgeCount())
}

func TestAnalyze_Errors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.twb"))
	assert.ErrorIs(t, err, workbook.ErrNotFound)

	broken := filepath.Join(t.TempDir(), "broken.twb")
	require.NoError(t, os.WriteFile(broken, []byte("<workbook><datasources></workbook>"), 0o600))
	_, err = e.Analyze(context.Background(), broken)
	assert.ErrorIs(t, err, workbook.ErrMalformed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Analyze(ctx, fixturePath)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeWorkbook_EmptySectionsAreArrays(t *testing.T) {
	report := newTestEngine(t).AnalyzeWorkbook(&workbook.Workbook{})

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, section := range []string{"datasources", "tables", "worksheets", "dashboards", "dependencies", "usage", "field_usage"} {
		assert.Equal(t, []any{}, decoded[section], section)
	}
}

func TestExport(t *testing.T) {
	e := newTestEngine(t)
	report, err := e.Analyze(context.Background(), fixturePath)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := e.Export(context.Background(), report, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, GraphDOTFile),
		filepath.Join(dir, GraphJSONFile),
		filepath.Join(dir, ReportFile),
	}, paths)

	dot, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(dot), "strict digraph")

	raw, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.Dependencies[0].WhereUsed, decoded.Dependencies[0].WhereUsed)
	assert.Equal(t, 5, decoded.DependencyGraph().EdgeCount(), "graph rebuilds from where_used")
	for _, n := range report.DependencyGraph().Nodes() {
		got, ok := decoded.DependencyGraph().GetNode(n.ID)
		require.True(t, ok, n.ID)
		assert.Equal(t, n.FieldType, got.FieldType, n.ID)
	}
}

func TestDependencyGraph_TypesFromDefinitions(t *testing.T) {
	report := &Report{
		Fields: []fields.Definition{
			{Key: "[Sales]", DisplayName: "Sales", Type: fields.RawVariable},
			{Key: "[Calculation_1]", DisplayName: "Forecast", Type: fields.CalculatedField},
		},
		Parameters: []fields.Definition{
			{Key: "[Parameter 1]", DisplayName: "Growth Rate", Type: fields.Parameter},
		},
		Dependencies: []lineage.DependencyRecord{
			{FieldName: "Sales", WhereUsed: "Forecast", UsedTimes: 1},
			{FieldName: "Parameter 1", WhereUsed: "Forecast", UsedTimes: 1},
			{FieldName: "Ghost", WhereUsed: "Forecast", UsedTimes: 1},
		},
	}

	g := report.DependencyGraph()
	tests := []struct {
		node string
		want string
	}{
		{"Sales", fields.RawVariable.String()},
		{"Parameter 1", fields.Parameter.String()},
		{"Forecast", fields.CalculatedField.String()},
		{"Ghost", fields.UnknownTypeName},
	}
	for _, tt := range tests {
		t.Run(tt.node, func(t *testing.T) {
			n, ok := g.GetNode(tt.node)
			require.True(t, ok)
			assert.Equal(t, tt.want, n.FieldType)
		})
	}
}

func TestAnalyzeReader(t *testing.T) {
	f, err := os.Open(fixturePath)
	require.NoError(t, err)
	defer f.Close()

	report, err := newTestEngine(t).AnalyzeReader(context.Background(), "-", f)
	require.NoError(t, err)
	assert.Equal(t, "-", report.Workbook)
	assert.Len(t, report.Dependencies, 4)

	_, err = newTestEngine(t).AnalyzeReader(context.Background(), "-", strings.NewReader("<workbook/><extra/>"))
	assert.ErrorIs(t, err, workbook.ErrMalformed)
}

func TestExport_CancelledContext(t *testing.T) {
	e := newTestEngine(t)
	report := e.AnalyzeWorkbook(&workbook.Workbook{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Export(ctx, report, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatch_ReanalyzesOnWrite(t *testing.T) {
	fixture, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "live.twb")
	require.NoError(t, os.WriteFile(path, fixture, 0o600))

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports := make(chan *Report, 4)
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, path, func(r *Report, err error) {
			if err != nil {
				return
			}
			select {
			case reports <- r:
			default:
			}
		})
	}()

	// Keep touching the file until the watcher has registered and reacted.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case r := <-reports:
			assert.Len(t, r.Dependencies, 4)
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, fixture, 0o600))
		case <-deadline:
			t.Fatal("no report after workbook change")
		}
	}
}

func TestWatch_RunsOneAtATime(t *testing.T) {
	fixture, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "live.twb")
	require.NoError(t, os.WriteFile(path, fixture, 0o600))

	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inFlight, overlaps, runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, path, func(*Report, error) {
			if inFlight.Add(1) > 1 {
				overlaps.Add(1)
			}
			// Slower than the debounce window.
			time.Sleep(80 * time.Millisecond)
			runs.Add(1)
			inFlight.Add(-1)
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(30 * time.Millisecond)
	defer tick.Stop()
	for runs.Load() < 3 {
		select {
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, fixture, 0o600))
		case <-deadline:
			t.Fatal("watcher did not re-run")
		}
	}

	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, inFlight.Load(), "no run outlives Watch")
	assert.Zero(t, overlaps.Load(), "runs never overlap")
}

func TestAnalyze_LogsPipelineSteps(t *testing.T) {
	logger, logs := testutil.NewBufferLogger()
	e := New(Config{Logger: logger})

	_, err := e.Analyze(context.Background(), fixturePath)
	require.NoError(t, err)

	for _, msg := range []string{"loading workbook", "indexed fields", "aggregated dependencies", "counted usage", "built dependency graph"} {
		assert.Contains(t, logs.String(), `"msg":"`+msg+`"`)
	}
	assert.Contains(t, logs.String(), `"nodes":6`)
}
