// Package repomanager wires database connections, goose migrations, and
// repository constructors for the supported storage backends.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/passkeys"
)

// RepositoryManager vends storage-backend-specific repository
// implementations and exposes a schema migration hook.
type RepositoryManager interface {
	// Passkeys returns a passkeys.Repository bound to the provided DBTX.
	Passkeys(db dbx.DBTX) passkeys.Repository

	// RunMigrations brings the schema up to date. Safe to call on every
	// start; already-applied migrations are skipped.
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// pingAttempts bounds the connect backoff so a dead backend fails fast
// enough for an interactive CLI.
const pingAttempts = 5

// Open connects to the database selected by driver ("sqlite" or "postgres"),
// verifies connectivity with fibonacci backoff, and runs migrations.
// Connectivity failures are reported as common.ErrStorageUnavailable.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var m RepositoryManager
	var driverName string

	switch driver {
	case "sqlite", "sqlite3":
		m = &SQLiteRepositoryManager{}
		driverName = "sqlite"
	case "postgres", "pgx":
		m = &PostgresRepositoryManager{}
		driverName = "pgx"
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	// SQLite allows one writer at a time. A single-connection pool
	// serializes transactions, so a concurrent counter update loses with
	// ErrReplayDetected instead of SQLITE_BUSY.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	backoff := retry.WithMaxRetries(pingAttempts, retry.NewFibonacci(100*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}

	return db, m, nil
}
