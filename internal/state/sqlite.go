package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a store. A nil logger uses a discard logger.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the SQLite database. Use ":memory:" for an in-memory store.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping state database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of a construction run.
func (s *SQLiteStore) CreateRun(dialect string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	run := &Run{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		Dialect:   dialect,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("dialect", dialect))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, dialect, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Status, run.Dialect, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return errNotOpen
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, nullable(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	row := s.db.QueryRow(
		`SELECT id, status, dialect, started_at, completed_at, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

// ListRuns retrieves the most recent runs up to limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	rows, err := s.db.Query(
		`SELECT id, status, dialect, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordEntityRun inserts a per-entity outcome, assigning an ID when unset.
func (s *SQLiteStore) RecordEntityRun(er *EntityRun) error {
	if s.db == nil {
		return errNotOpen
	}
	if er.ID == "" {
		er.ID = uuid.New().String()
	}
	_, err := s.db.Exec(
		`INSERT INTO entity_runs (id, run_id, entity, kind, status, position, error, execution_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		er.ID, er.RunID, er.Entity, er.Kind, er.Status, er.Position, nullable(er.Error), er.ExecutionMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record entity run: %w", err)
	}
	return nil
}

// UpdateEntityRun updates the status of a per-entity outcome.
func (s *SQLiteStore) UpdateEntityRun(id string, status EntityStatus, errMsg string, executionMS int64) error {
	if s.db == nil {
		return errNotOpen
	}
	_, err := s.db.Exec(
		`UPDATE entity_runs SET status = ?, error = ?, execution_ms = ? WHERE id = ?`,
		status, nullable(errMsg), executionMS, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity run: %w", err)
	}
	return nil
}

// ListEntityRuns retrieves the per-entity outcomes of a run in build order.
func (s *SQLiteStore) ListEntityRuns(runID string) ([]*EntityRun, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, entity, kind, status, position, error, execution_ms
		 FROM entity_runs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*EntityRun
	for rows.Next() {
		var er EntityRun
		var errMsg sql.NullString
		if err := rows.Scan(&er.ID, &er.RunID, &er.Entity, &er.Kind, &er.Status,
			&er.Position, &errMsg, &er.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan entity run: %w", err)
		}
		er.Error = errMsg.String
		out = append(out, &er)
	}
	return out, rows.Err()
}

var errNotOpen = errors.New("state database not opened")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var completed sql.NullTime
	var errMsg sql.NullString
	if err := row.Scan(&run.ID, &run.Status, &run.Dialect, &run.StartedAt, &completed, &errMsg); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
