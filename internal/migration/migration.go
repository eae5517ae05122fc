package migration

import (
	"context"
	"time"

	"chronorate/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the corpus schema. Statements are written in the subset
// of SQL shared by PostgreSQL and SQLite so one runner serves both drivers.
type MigrationRunner struct {
	version string
	steps   []step
}

type step struct {
	name string
	sql  string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		steps: []step{
			{"schema_migrations table", createSchemaMigrations},
			{"populations table", createPopulations},
			{"subjects table", createSubjects},
			{"subjects index", createSubjectsIndex},
			{"populations index", createPopulationsIndex},
		},
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all migrations in order and records the schema version. Running it
// twice is a no-op.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range r.steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrapf(err, "failed to create %s", s.name)
		}
	}

	var applied int
	if err := db.GetContext(ctx, &applied, db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), r.version); err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}
	if applied > 0 {
		return nil
	}

	_, err := db.ExecContext(ctx,
		db.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`),
		r.version, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}

// Reset drops every table owned by the runner. Used by dev tooling and tests.
func (r *MigrationRunner) Reset(ctx context.Context, db *sqlx.DB) error {
	for _, table := range []string{"subjects", "populations", "schema_migrations"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return errors.Wrapf(err, "failed to drop %s", table)
		}
	}
	return nil
}

const createSchemaMigrations = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(32) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL
	)`

const createPopulations = `
	CREATE TABLE IF NOT EXISTS populations (
		run_id VARCHAR(64) PRIMARY KEY,
		total_subjects INTEGER NOT NULL,
		days_per_subject INTEGER NOT NULL,
		early_count INTEGER NOT NULL DEFAULT 0,
		intermediate_count INTEGER NOT NULL DEFAULT 0,
		late_count INTEGER NOT NULL DEFAULT 0,
		seed BIGINT NOT NULL,
		metadata TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`

const createSubjects = `
	CREATE TABLE IF NOT EXISTS subjects (
		run_id VARCHAR(64) NOT NULL REFERENCES populations(run_id) ON DELETE CASCADE,
		subject_id VARCHAR(32) NOT NULL,
		idx INTEGER NOT NULL,
		chronotype VARCHAR(16) NOT NULL,
		mu DOUBLE PRECISION NOT NULL,
		tau DOUBLE PRECISION NOT NULL,
		noise_level DOUBLE PRECISION NOT NULL,
		time_hours TEXT NOT NULL,
		base_signal TEXT NOT NULL,
		derived_signals TEXT NOT NULL,
		events TEXT NOT NULL,
		PRIMARY KEY (run_id, subject_id)
	)`

const createSubjectsIndex = `CREATE INDEX IF NOT EXISTS idx_subjects_run_idx ON subjects (run_id, idx)`

const createPopulationsIndex = `CREATE INDEX IF NOT EXISTS idx_populations_created_at ON populations (created_at)`
