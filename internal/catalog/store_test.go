package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbdoc/twbdoc/internal/engine"
	"github.com/twbdoc/twbdoc/internal/testutil"
)

const fixturePath = "../workbook/testdata/superstore.twb"

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(context.Background(), MemoryPath))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func analyzeAt(t *testing.T, at time.Time) *engine.Report {
	t.Helper()
	e := engine.New(engine.Config{Clock: func() time.Time { return at }})
	report, err := e.Analyze(context.Background(), fixturePath)
	require.NoError(t, err)
	return report
}

func TestStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"runs", "dependencies", "field_usage"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestStore_NotOpen(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveReport(ctx, &engine.Report{}), ErrNotOpen)
	_, err := store.ListRuns(ctx, "", 0)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.Migrate(ctx), ErrNotOpen)
	assert.NoError(t, store.Close())
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := analyzeAt(t, at)

	require.NoError(t, store.SaveReport(ctx, report))

	run, err := store.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, Run{
		ID:             report.RunID,
		Workbook:       fixturePath,
		GeneratedAt:    at,
		FieldCount:     8,
		ParameterCount: 1,
		NodeCount:      6,
		EdgeCount:      5,
		Density:        report.Graph.Stats.Density,
		Connected:      true,
	}, *run)

	deps, err := store.Dependencies(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, deps, len(report.Dependencies))
	for i := range deps {
		assert.Equal(t, report.Dependencies[i].FieldName, deps[i].FieldName)
		assert.Equal(t, report.Dependencies[i].WhereUsed, deps[i].WhereUsed)
		assert.Equal(t, report.Dependencies[i].UsedTimes, deps[i].UsedTimes)
	}

	usage, err := store.Usage(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Usage, usage)
}

func TestStore_DuplicateRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	report := analyzeAt(t, time.Now())

	require.NoError(t, store.SaveReport(ctx, report))
	require.Error(t, store.SaveReport(ctx, report))

	deps, err := store.Dependencies(ctx, report.RunID)
	require.NoError(t, err)
	assert.Len(t, deps, len(report.Dependencies), "failed save must not leave partial rows")
}

func TestStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := range 3 {
		report := analyzeAt(t, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, store.SaveReport(ctx, report))
		ids = append(ids, report.RunID)
	}
	other := analyzeAt(t, base.Add(-time.Hour))
	other.Workbook = "other.twb"
	require.NoError(t, store.SaveReport(ctx, other))

	tests := []struct {
		name     string
		workbook string
		limit    int
		want     []string
	}{
		{"all workbooks newest first", "", 0, []string{ids[2], ids[1], ids[0], other.RunID}},
		{"limited", "", 2, []string{ids[2], ids[1]}},
		{"filtered by workbook", "other.twb", 0, []string{other.RunID}},
		{"unknown workbook", "missing.twb", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.workbook, tt.limit)
			require.NoError(t, err)
			var got []string
			for _, r := range runs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_GetRun_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()
	report := analyzeAt(t, time.Now())

	store := NewStore(nil)
	require.NoError(t, store.Open(ctx, path))
	require.NoError(t, store.SaveReport(ctx, report))
	require.NoError(t, store.Close())

	reopened := NewStore(nil)
	require.NoError(t, reopened.Open(ctx, path))
	defer func() { _ = reopened.Close() }()

	runs, err := reopened.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].ID)
}
