// Package catalog keeps a history of documentation runs in SQLite.
// Each run stores its summary numbers together with the dependency and
// usage records, so results can be compared across workbook revisions.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/twbdoc/twbdoc/internal/engine"
	"github.com/twbdoc/twbdoc/internal/fields"
	"github.com/twbdoc/twbdoc/internal/lineage"
)

// MemoryPath opens a private in-memory catalog.
const MemoryPath = ":memory:"

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	// ErrNotOpen is returned when the store is used before Open.
	ErrNotOpen = errors.New("catalog not opened")
	// ErrRunNotFound is returned when a run ID is unknown.
	ErrRunNotFound = errors.New("run not found")
)

// Run summarizes one stored report.
type Run struct {
	ID             string    `json:"id" yaml:"id"`
	Workbook       string    `json:"workbook" yaml:"workbook"`
	GeneratedAt    time.Time `json:"generated_at" yaml:"generated_at"`
	FieldCount     int       `json:"field_count" yaml:"field_count"`
	ParameterCount int       `json:"parameter_count" yaml:"parameter_count"`
	NodeCount      int       `json:"node_count" yaml:"node_count"`
	EdgeCount      int       `json:"edge_count" yaml:"edge_count"`
	Density        float64   `json:"density" yaml:"density"`
	Connected      bool      `json:"connected" yaml:"connected"`
}

// Store is the SQLite-backed run catalog.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a new catalog store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the catalog at path and applies pending migrations.
// Use MemoryPath for an in-memory catalog.
func (s *Store) Open(ctx context.Context, path string) error {
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	if path == MemoryPath {
		// Every new connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping catalog: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.path = path
	s.logger.Debug("catalog opened", slog.String("path", path))
	return nil
}

// Close closes the catalog.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport stores a report and its records in one transaction.
func (s *Store) SaveReport(ctx context.Context, r *engine.Report) error {
	if s.db == nil {
		return ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stats := r.Graph.Stats
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, workbook, generated_at, field_count, parameter_count,
			node_count, edge_count, density, connected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Workbook, r.GeneratedAt.UTC().Format(timeLayout),
		len(r.Fields), len(r.Parameters),
		stats.Nodes, stats.Edges, stats.Density, stats.Connected)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, rec := range r.Dependencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dependencies (run_id, position, field_name, where_used, used_times)
			VALUES (?, ?, ?, ?, ?)`,
			r.RunID, i, rec.FieldName, rec.WhereUsed, rec.UsedTimes); err != nil {
			return fmt.Errorf("failed to insert dependency %q: %w", rec.FieldName, err)
		}
	}

	for i, rec := range r.Usage {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO field_usage (run_id, position, field_name, field_type, used_times)
			VALUES (?, ?, ?, ?, ?)`,
			r.RunID, i, rec.FieldName, rec.FieldType.String(), rec.UsedTimes); err != nil {
			return fmt.Errorf("failed to insert usage %q: %w", rec.FieldName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("saved run",
		slog.String("id", r.RunID),
		slog.Int("dependencies", len(r.Dependencies)),
		slog.Int("usage", len(r.Usage)))
	return nil
}

const runColumns = `id, workbook, generated_at, field_count, parameter_count,
	node_count, edge_count, density, connected`

// ListRuns returns the most recent runs first. An empty workbook matches
// every workbook; a non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, workbook string, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE ? = '' OR workbook = ?
		ORDER BY generated_at DESC, id
		LIMIT ?`, workbook, workbook, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Dependencies returns the dependency records of a run in stored order.
func (s *Store) Dependencies(ctx context.Context, runID string) ([]lineage.DependencyRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT field_name, where_used, used_times
		FROM dependencies WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.DependencyRecord
	for rows.Next() {
		var rec lineage.DependencyRecord
		if err := rows.Scan(&rec.FieldName, &rec.WhereUsed, &rec.UsedTimes); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Usage returns the usage records of a run in stored order.
func (s *Store) Usage(ctx context.Context, runID string) ([]lineage.UsageRecord, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT field_name, field_type, used_times
		FROM field_usage WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []lineage.UsageRecord
	for rows.Next() {
		var (
			rec   lineage.UsageRecord
			label string
		)
		if err := rows.Scan(&rec.FieldName, &label, &rec.UsedTimes); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		if rec.FieldType, err = fields.ParseType(label); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		generatedAt string
	)
	err := row.Scan(&run.ID, &run.Workbook, &generatedAt, &run.FieldCount, &run.ParameterCount,
		&run.NodeCount, &run.EdgeCount, &run.Density, &run.Connected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if run.GeneratedAt, err = time.Parse(timeLayout, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse run time %q: %w", generatedAt, err)
	}
	return &run, nil
}
