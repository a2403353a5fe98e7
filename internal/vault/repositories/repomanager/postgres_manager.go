package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/vault/migrations"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/passkeys"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations for deployments where the store is shared.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Passkeys(db dbx.DBTX) passkeys.Repository {
	return passkeys.NewPostgresRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
