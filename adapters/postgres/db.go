package postgres

import (
	"context"
	stderrors "errors"
	"strings"

	"chronorate/domain/core"
	"chronorate/internal/errors"
	"chronorate/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database, pings it and applies migrations.
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	if driver == "" {
		driver = DriverPostgres
	}

	db, err := sqlx.ConnectContext(ctx, driver, url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}

	if driver == DriverSQLite {
		// One connection keeps in-memory databases shared across calls and
		// serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.DatabaseError("database migration failed", err)
	}
	return db, nil
}

// isUniqueViolation recognizes duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// conflict maps a duplicate-key error to the domain conflict sentinel.
func conflict(err error, runID core.RunID) error {
	if err != nil && isUniqueViolation(err) {
		return errors.Wrapf(core.ErrPopulationExists, "population %s already stored", runID)
	}
	return err
}
