// Package history is cmd/dcmtkctl's run ledger: a sqlite-backed record of
// every toolwrap/server.Shell invocation, queryable for "what ran, when,
// against which peer, with what result" — host tooling layered above the
// stateless core (spec.md §6: "Persisted state: None" describes the core
// packages, not the CLI wrapped around them).
//
// Grounded on boxer.go's sqlDB setup (sql.Open("sqlite", path), WAL mode,
// schema applied at startup) generalized from a hand-run
// //go:embed db/schema.sql single-shot apply to golang-migrate's
// versioned migrations — boxer.go's go.mod already carries
// golang-migrate/migrate/v4 but the snapshot never calls it; wired here so
// the run ledger's schema can evolve across dcmtkctl releases without a
// destructive re-create.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a handle on the run ledger database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// brings its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	srcDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("attaching migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("building migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one ledger row: a single tool or server invocation.
type Run struct {
	CorrelationID string
	RunName       string
	Tool          string
	Argv          string
	StartedAt     time.Time
	FinishedAt    time.Time
	ExitCode      int
	Status        string
}

const timeLayout = time.RFC3339Nano

// RecordRun inserts a completed run. CorrelationID is the primary key, so
// recording the same ids.NewCorrelationID() value twice is a programmer
// error and surfaces as a constraint-violation error.
func (s *Store) RecordRun(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (correlation_id, run_name, tool, argv, started_at, finished_at, exit_code, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CorrelationID, r.RunName, r.Tool, r.Argv,
		r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
		r.ExitCode, r.Status,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.CorrelationID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recently started first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT correlation_id, run_name, tool, argv, started_at, finished_at, exit_code, status
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, finishedAt string
		if err := rows.Scan(&r.CorrelationID, &r.RunName, &r.Tool, &r.Argv, &startedAt, &finishedAt, &r.ExitCode, &r.Status); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, startedAt)
		r.FinishedAt, _ = time.Parse(timeLayout, finishedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
