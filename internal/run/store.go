package run

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Store keeps a history of completed runs in SQLite so operators can review
// past batches after project directories are archived or deleted.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore initializes or connects to the run history database.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}
	dbPath := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (version TEXT PRIMARY KEY)`,
		`CREATE TABLE IF NOT EXISTS runs (
            id             TEXT PRIMARY KEY,
            number         INTEGER NOT NULL,
            name           TEXT NOT NULL,
            idea           TEXT NOT NULL,
            provider       TEXT,
            status         TEXT NOT NULL,
            failed_stage   TEXT,
            failure_reason TEXT,
            project_dir    TEXT,
            assets         TEXT,
            started_at     TEXT NOT NULL,
            finished_at    TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Record inserts or replaces the finished run in the history.
func (s *Store) Record(ctx context.Context, r *Run) error {
	assets, err := json.Marshal(r.Assets)
	if err != nil {
		return fmt.Errorf("record run: encode assets: %w", err)
	}
	var finishedAt any
	if r.FinishedAt != nil {
		finishedAt = r.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (
            id, number, name, idea, provider, status,
            failed_stage, failure_reason, project_dir, assets,
            started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Number, r.Name, r.Idea, r.Provider, string(r.Status),
		nullableString(r.FailedStage), nullableString(r.FailureReason),
		r.ProjectDir, string(assets),
		r.StartedAt.UTC().Format(time.RFC3339Nano), finishedAt,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// HistoryEntry is one row of the run history.
type HistoryEntry struct {
	ID            string
	Number        int
	Name          string
	Idea          string
	Provider      string
	Status        Status
	FailedStage   string
	FailureReason string
	ProjectDir    string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, name, idea, provider, status,
                failed_stage, failure_reason, project_dir,
                started_at, finished_at
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			provider   sql.NullString
			failStage  sql.NullString
			failReason sql.NullString
			projectDir sql.NullString
			startedAt  string
			finishedAt sql.NullString
			status     string
		)
		if err := rows.Scan(&entry.ID, &entry.Number, &entry.Name, &entry.Idea,
			&provider, &status, &failStage, &failReason, &projectDir,
			&startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		entry.Provider = provider.String
		entry.Status = Status(status)
		entry.FailedStage = failStage.String
		entry.FailureReason = failReason.String
		entry.ProjectDir = projectDir.String
		if parsed, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			entry.StartedAt = parsed
		}
		if finishedAt.Valid {
			if parsed, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
				entry.FinishedAt = &parsed
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
