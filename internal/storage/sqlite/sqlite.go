// Package sqlite implements the record store on an embedded SQLite
// database. This is the default backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"focusd/internal/session"
	"focusd/internal/storage"
	_ "modernc.org/sqlite"
)

// Store implements storage.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Records returns the record store.
func (s *Store) Records() storage.RecordStore {
	return &recordStore{db: s.db}
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion); err != nil {
		return fmt.Errorf("get current migration version: %w", err)
	}

	for version := currentVersion + 1; version <= len(migrations); version++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(migrations[version-1]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}

	return nil
}

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS focus_sessions (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	planned_seconds INTEGER NOT NULL,
	actual_seconds INTEGER NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	day TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER NOT NULL
);

CREATE INDEX idx_focus_sessions_day ON focus_sessions(day);
CREATE INDEX idx_focus_sessions_started ON focus_sessions(started_at);
`,
}

type recordStore struct {
	db *sql.DB
}

const recordColumns = "id, kind, label, planned_seconds, actual_seconds, completed, started_at, ended_at"

func (s *recordStore) Add(ctx context.Context, rec session.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO focus_sessions
			(id, kind, label, planned_seconds, actual_seconds, completed, day, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		string(rec.Kind),
		rec.Label,
		rec.PlannedSeconds,
		rec.ActualSeconds,
		boolToInt(rec.Completed),
		rec.StartedAt.Format(storage.DayFormat),
		rec.StartedAt.UnixNano(),
		rec.EndedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

func (s *recordStore) Get(ctx context.Context, id string) (*session.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM focus_sessions WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordStore) List(ctx context.Context, limit int) ([]session.Record, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM focus_sessions ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	return collectRecords(rows)
}

func (s *recordStore) ListDay(ctx context.Context, day string) ([]session.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM focus_sessions WHERE day = ? ORDER BY started_at DESC", day)
	if err != nil {
		return nil, fmt.Errorf("list session records for day: %w", err)
	}
	return collectRecords(rows)
}

func (s *recordStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM focus_sessions WHERE started_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete session records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*session.Record, error) {
	var (
		rec       session.Record
		kind      string
		completed int
		startedNS int64
		endedNS   int64
	)
	if err := row.Scan(
		&rec.ID, &kind, &rec.Label,
		&rec.PlannedSeconds, &rec.ActualSeconds,
		&completed, &startedNS, &endedNS,
	); err != nil {
		return nil, err
	}
	rec.Kind = session.Kind(kind)
	rec.Completed = completed != 0
	rec.StartedAt = time.Unix(0, startedNS)
	rec.EndedAt = time.Unix(0, endedNS)
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]session.Record, error) {
	defer func() { _ = rows.Close() }()

	records := make([]session.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
