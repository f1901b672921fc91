// Package journal is the operator-facing record of AI calls: what was asked,
// for whom, how long it took and how it failed.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrLocked means another process already owns the journal.
var ErrLocked = errors.New("journal is locked by another process")

// Operation names recorded by the workspace.
const (
	OpAnalysis      = "analysis"
	OpImage         = "image"
	OpCue           = "cue"
	OpPeriodization = "periodization"
	OpInsight       = "insight"
)

// Entry statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusStale  = "stale"
)

// Entry is one recorded AI call.
type Entry struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Operation    string    `json:"operation"`
	Subject      string    `json:"subject"`
	Status       string    `json:"status"`
	DurationMs   int64     `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

// Journal is a SQLite-backed call log. Opening it takes a file lock so a
// single process owns the workspace session.
type Journal struct {
	db   *sql.DB
	lock *flock.Flock
}

// Open creates or opens the journal at path and applies migrations.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring journal lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	if err := runMigrations(path); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &Journal{db: db, lock: lock}, nil
}

func runMigrations(path string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Record appends an entry and returns its ID. A zero CreatedAt is stamped
// with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO ai_calls (created_at_ms, operation, subject, status, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UnixMilli(), e.Operation, e.Subject, e.Status, e.DurationMs, e.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("inserting journal entry: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest entries first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at_ms, operation, subject, status, duration_ms, error_message
		 FROM ai_calls
		 ORDER BY created_at_ms DESC, id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var (
			e         Entry
			createdMs int64
			errMsg    sql.NullString
		)
		if err := rows.Scan(&e.ID, &createdMs, &e.Operation, &e.Subject, &e.Status, &e.DurationMs, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMs)
		if errMsg.Valid {
			msg := errMsg.String
			e.ErrorMessage = &msg
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Close closes the database and releases the lock.
func (j *Journal) Close() error {
	err := j.db.Close()
	if uerr := j.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
