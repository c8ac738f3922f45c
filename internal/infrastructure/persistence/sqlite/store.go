// Package sqlite is the single-file storage backend for local runs and
// tests. It implements the same ports as the PostgreSQL repositories.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Foreign keys, WAL and a busy timeout are set per connection via
// the DSN.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single writer keeps version-guarded updates from racing on SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: health check: %w", err)
	}
	return nil
}

func (s *Store) Applications() *ApplicationRepo { return &ApplicationRepo{db: s.db} }
func (s *Store) Schedules() *ScheduleRepo       { return &ScheduleRepo{db: s.db} }
func (s *Store) Actors() *ActorRepo             { return &ActorRepo{db: s.db} }
func (s *Store) Outbox() *OutboxRepo            { return &OutboxRepo{db: s.db} }

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scannable interface {
	Scan(dest ...any) error
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback tx: %w (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit tx: %w", err)
	}
	return nil
}

// uniqueViolation returns the "table.column" list SQLite names in a unique
// constraint failure.
func uniqueViolation(err error) (string, bool) {
	var sqErr sqlite3.Error
	if !errors.As(err, &sqErr) || sqErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return "", false
	}
	_, cols, _ := strings.Cut(sqErr.Error(), "UNIQUE constraint failed: ")
	return cols, true
}

// utc normalises timestamps so that text ordering in SQLite matches time
// ordering.
func utc(t time.Time) time.Time { return t.UTC() }
