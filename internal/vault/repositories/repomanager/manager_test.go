package repomanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/passkeys"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_SQLiteMigratesAndVendsRepo(t *testing.T) {
	ctx := context.Background()

	db, m, err := Open(ctx, "sqlite", "file:repomanager_open?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := m.Passkeys(db)
	require.IsType(t, &passkeys.SQLiteRepository{}, repo)

	// The migrated schema must accept a full record.
	err = repo.Create(ctx, &models.Passkey{
		ID:               "cred-1",
		RelyingPartyID:   "example.com",
		RelyingPartyName: "Example",
		UserID:           "u1",
		Username:         "alice",
		Counter:          0,
		Key:              models.Blob("pk-blob"),
	})
	require.NoError(t, err)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := "file:repomanager_idem?mode=memory&cache=shared"

	db, m, err := Open(ctx, "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Applying the same migrations again must be a no-op.
	require.NoError(t, m.RunMigrations(ctx, db))
}
