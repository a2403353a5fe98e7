// Package cli implements the passkeeper command-line interface: listing and
// revoking stored passkeys and moving the whole vault between machines.
package cli

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/config"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/vault/exchange"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/repomanager"
	"github.com/dmitrijs2005/passkeeper/internal/vault/services"
)

// App carries the wiring shared by all subcommands. The store is opened
// lazily in the root command's PersistentPreRunE, after flags have been
// resolved.
type App struct {
	config      *config.Config
	db          *sql.DB
	manager     repomanager.RepositoryManager
	logger      logging.Logger
	credentials *services.CredentialService
	vault       *services.VaultService
	out         io.Writer
}

func NewApp() *App {
	return &App{
		logger: logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))),
		out:    os.Stdout,
	}
}

func (a *App) openStore(ctx context.Context) error {
	db, manager, err := repomanager.Open(ctx, a.config.DatabaseDriver, a.config.DatabaseDSN)
	if err != nil {
		return err
	}
	a.db = db
	a.manager = manager
	a.credentials = services.NewCredentialService(db, manager, a.logger)
	a.vault = services.NewVaultService(db, manager, a.logger)
	return nil
}

func (a *App) s3Exchange() *exchange.S3Exchange {
	return exchange.NewS3Exchange(exchange.S3Settings{
		RootUser:     a.config.S3RootUser,
		RootPassword: a.config.S3RootPassword,
		Bucket:       a.config.S3Bucket,
		Region:       a.config.S3Region,
		BaseEndpoint: a.config.S3BaseEndpoint,
		PollInterval: a.config.S3PollInterval,
	})
}

func (a *App) closeStore() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
