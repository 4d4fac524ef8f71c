// Package journal persists the outcome of every finished probe run in an
// embedded SQLite database. It is an audit log of completed runs, not
// resumable retry state.
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

	migrate "github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Statuses recorded for a finished run.
const (
	StatusSuccess    = "success"     // first attempt succeeded
	StatusRecovered  = "recovered"   // succeeded after at least one retry
	StatusMaxRetries = "max_retries" // retry budget exhausted
	StatusTimeout    = "timeout"     // time budget ran out before a retry
	StatusDeadline   = "deadline"    // attempt finished past the deadline
	StatusError      = "error"       // non-retryable failure
)

// Outcome describes one finished run of a retried job.
type Outcome struct {
	ID        int64
	Job       string
	StartedAt time.Time
	Attempts  int
	Elapsed   time.Duration
	Status    string
	Error     string
}

// Stats aggregates recorded outcomes.
type Stats struct {
	Total    int64
	ByStatus map[string]int64
}

// Store is a SQLite-backed outcome journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create directory %s: %w", dir, err)
		}
	}

	db, err := open(ctx, path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: apply %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an in-memory journal for tests.
func OpenInMemory(ctx context.Context) (*Store, error) {
	db, err := open(ctx, ":memory:")
	if err != nil {
		return nil, err
	}
	// A single connection keeps every statement on the same in-memory schema.
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping database: %w", err)
	}
	return db, nil
}

// migrateUp applies all embedded migrations. Safe to call repeatedly.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("journal: load migrations: %w", err)
	}
	drv, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("journal: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("journal: migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("journal: apply migrations: %w", err)
	}
	return nil
}

// Record appends a finished run to the journal.
func (s *Store) Record(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (job, started_at, attempts, elapsed_ms, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.Job, o.StartedAt.UTC(), o.Attempts, o.Elapsed.Milliseconds(), o.Status, o.Error,
	)
	if err != nil {
		return fmt.Errorf("journal: record outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit outcomes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Outcome, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job, started_at, attempts, elapsed_ms, outcome, error
		 FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var elapsedMs int64
		if err := rows.Scan(&o.ID, &o.Job, &o.StartedAt, &o.Attempts, &elapsedMs, &o.Status, &o.Error); err != nil {
			return nil, fmt.Errorf("journal: scan outcome: %w", err)
		}
		o.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate outcomes: %w", err)
	}
	return out, nil
}

// Stats returns aggregate counts over all recorded outcomes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM outcomes GROUP BY outcome`)
	if err != nil {
		return Stats{}, fmt.Errorf("journal: query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	st := Stats{ByStatus: make(map[string]int64)}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return Stats{}, fmt.Errorf("journal: scan stats: %w", err)
		}
		st.ByStatus[status] = n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("journal: iterate stats: %w", err)
	}
	return st, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
