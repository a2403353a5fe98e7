package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/vault/migrations"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/passkeys"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
// This is the default backend: a single local database file.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Passkeys(db dbx.DBTX) passkeys.Repository {
	return passkeys.NewSQLiteRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
