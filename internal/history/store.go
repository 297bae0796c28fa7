// Package history keeps a SQLite record of stage runs and the outcome of
// every folder they processed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/hexpipe/internal/models"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var (
	// ErrRunNotFound is returned when no run matches an ID prefix.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun is returned when an ID prefix matches several runs.
	ErrAmbiguousRun = errors.New("ambiguous run ID prefix")
)

// RunRecord is a stored run with its aggregated counts.
type RunRecord struct {
	models.Run
	Host     string
	Finished bool
	Folders  int
	Failures int
}

// FolderRecord is one stored folder outcome together with its run's stage.
type FolderRecord struct {
	RunID string
	Stage string
	models.FolderOutcome
}

// Store manages the SQLite database holding the run history
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (and creates if needed) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartRun inserts a run row. FinishedAt is left unset until FinishRun.
func (s *Store) StartRun(ctx context.Context, run models.Run) error {
	host, _ := os.Hostname()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, stage, reference, root, comment, ledger, error_ledger, started_at, host)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Stage, run.Reference, run.Root, run.Comment,
		run.Ledger, run.ErrorLedger, run.StartedAt.UTC(), host)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordOutcome stores the outcome of one folder of a started run.
func (s *Store) RecordOutcome(ctx context.Context, runID string, outcome models.FolderOutcome) error {
	finished := outcome.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO folder_outcomes (run_id, folder, output_folder, status, step, reason, exit_code, duration_ms, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, outcome.Folder, outcome.OutputFolder, string(outcome.Status), outcome.Step,
		outcome.Reason, outcome.ExitCode, outcome.Duration.Milliseconds(), finished.UTC())
	if err != nil {
		return fmt.Errorf("insert outcome for %s: %w", outcome.Folder, err)
	}
	return nil
}

// FinishRun stamps the end time of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, finishedAt.UTC(), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `
SELECT r.id, r.stage, r.reference, r.root, COALESCE(r.comment, ''), COALESCE(r.ledger, ''),
       COALESCE(r.error_ledger, ''), r.started_at, r.finished_at, COALESCE(r.host, ''),
       (SELECT COUNT(*) FROM folder_outcomes o WHERE o.run_id = r.id),
       (SELECT COUNT(*) FROM folder_outcomes o WHERE o.run_id = r.id AND o.status IN ('error', 'missing_files'))
FROM runs r`

// RecentRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	query := runColumns + ` ORDER BY r.started_at DESC, r.id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// GetRun returns the run whose ID starts with prefix.
func (s *Store) GetRun(ctx context.Context, prefix string) (*RunRecord, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx, runColumns+` WHERE substr(r.id, 1, length(?1)) = ?1 ORDER BY r.started_at DESC LIMIT 2`, prefix)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", prefix, err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
	}
}

func scanRuns(rows *sql.Rows) ([]*RunRecord, error) {
	var runs []*RunRecord
	for rows.Next() {
		rec := &RunRecord{}
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.Stage, &rec.Reference, &rec.Root, &rec.Comment,
			&rec.Ledger, &rec.ErrorLedger, &rec.StartedAt, &finished, &rec.Host,
			&rec.Folders, &rec.Failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			rec.FinishedAt = finished.Time
			rec.Finished = true
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Outcomes returns the folder outcomes of a run in processing order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]models.FolderOutcome, error) {
	records, err := s.queryOutcomes(ctx, `WHERE o.run_id = ? ORDER BY o.id`, runID)
	if err != nil {
		return nil, err
	}
	out := make([]models.FolderOutcome, len(records))
	for i, r := range records {
		out[i] = r.FolderOutcome
	}
	return out, nil
}

// FolderHistory returns every stored outcome for folder, newest first.
func (s *Store) FolderHistory(ctx context.Context, folder string) ([]*FolderRecord, error) {
	return s.queryOutcomes(ctx, `WHERE o.folder = ? ORDER BY o.finished_at DESC, o.id DESC`, folder)
}

func (s *Store) queryOutcomes(ctx context.Context, where string, args ...interface{}) ([]*FolderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT o.run_id, r.stage, o.folder, COALESCE(o.output_folder, ''), o.status, COALESCE(o.step, ''),
       COALESCE(o.reason, ''), o.exit_code, o.duration_ms, o.finished_at
FROM folder_outcomes o JOIN runs r ON r.id = o.run_id `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var records []*FolderRecord
	for rows.Next() {
		rec := &FolderRecord{}
		var status string
		var durationMs int64
		if err := rows.Scan(&rec.RunID, &rec.Stage, &rec.Folder, &rec.OutputFolder, &status,
			&rec.Step, &rec.Reason, &rec.ExitCode, &durationMs, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Status = models.Status(status)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return records, nil
}
