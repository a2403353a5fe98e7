package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

func TestVaultService_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	// Source store with two credentials.
	srcDB, srcM := setupStore(t)
	src := NewCredentialService(srcDB, srcM, discardLogger())
	require.NoError(t, src.Register(ctx, newCredential("cred-1")))
	second := newCredential("cred-2")
	second.Username = "bob"
	second.UserID = "u2"
	require.NoError(t, src.Register(ctx, second))

	// Importing side publishes an open box.
	kp, err := cryptox.NewKeyPair()
	require.NoError(t, err)
	openBox := &models.OpenBox{PublicKey: kp.PublicKey()}

	sealed, err := NewVaultService(srcDB, srcM, discardLogger()).Export(ctx, openBox)
	require.NoError(t, err)
	require.False(t, sealed.Passphrase())

	// Destination store imports the sealed box.
	dstDB, dstM := setupStore(t)
	vault, err := DecodeVault(kp, sealed)
	require.NoError(t, err)

	res, err := NewVaultService(dstDB, dstM, discardLogger()).Import(ctx, vault)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Empty(t, res.Skipped)

	dst := NewCredentialService(dstDB, dstM, discardLogger())
	got, err := dst.Get(ctx, "cred-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.Blob("pk-blob"), got.Key)
}

func TestVaultService_PassphraseRoundTrip(t *testing.T) {
	ctx := context.Background()
	passphrase := []byte("correct horse battery staple")

	srcDB, srcM := setupStore(t)
	src := NewCredentialService(srcDB, srcM, discardLogger())
	require.NoError(t, src.Register(ctx, newCredential("cred-1")))

	sealed, err := NewVaultService(srcDB, srcM, discardLogger()).ExportWithPassphrase(ctx, passphrase)
	require.NoError(t, err)
	require.True(t, sealed.Passphrase())

	_, err = DecodeVaultWithPassphrase([]byte("wrong"), sealed)
	require.Error(t, err)

	vault, err := DecodeVaultWithPassphrase(passphrase, sealed)
	require.NoError(t, err)
	require.Len(t, vault.Passkeys, 1)
	assert.Equal(t, "cred-1", vault.Passkeys[0].ID)
}

func TestVaultService_ImportSkipsStaleCounters(t *testing.T) {
	ctx := context.Background()

	db, m := setupStore(t)
	creds := NewCredentialService(db, m, discardLogger())
	require.NoError(t, creds.Register(ctx, newCredential("cred-1")))
	_, err := creds.AdvanceCounter(ctx, "cred-1", 9)
	require.NoError(t, err)

	stale := *newCredential("cred-1")
	stale.Counter = 2
	fresh := *newCredential("cred-2")

	res, err := NewVaultService(db, m, discardLogger()).Import(ctx, &models.Vault{
		Passkeys: []models.Passkey{stale, fresh},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, []string{"cred-1"}, res.Skipped)

	// The stored counter must be untouched.
	got, err := creds.Get(ctx, "cred-1")
	require.NoError(t, err)
	assert.Equal(t, models.Counter(9), got.Counter)
}

func TestVaultService_ImportRejectsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	db, m := setupStore(t)

	bad := *newCredential("cred-1")
	bad.Key = nil

	_, err := NewVaultService(db, m, discardLogger()).Import(ctx, &models.Vault{
		Passkeys: []models.Passkey{bad},
	})
	require.Error(t, err)

	// The failed import must not have left partial state behind.
	all, err := NewCredentialService(db, m, discardLogger()).All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestVaultService_ExportEmptyStore(t *testing.T) {
	ctx := context.Background()
	db, m := setupStore(t)

	kp, err := cryptox.NewKeyPair()
	require.NoError(t, err)

	sealed, err := NewVaultService(db, m, discardLogger()).Export(ctx, &models.OpenBox{PublicKey: kp.PublicKey()})
	require.NoError(t, err)

	vault, err := DecodeVault(kp, sealed)
	require.NoError(t, err)
	assert.Empty(t, vault.Passkeys)
}

func TestDecodeVault_ModeMismatch(t *testing.T) {
	kp, err := cryptox.NewKeyPair()
	require.NoError(t, err)

	_, err = DecodeVault(kp, &models.SealedBox{EncryptedVault: models.Blob("x"), KeyDerivationSalt: models.Blob("s")})
	require.Error(t, err)

	_, err = DecodeVaultWithPassphrase([]byte("p"), &models.SealedBox{
		PublicKey:         models.Blob("pub"),
		EncryptedVault:    models.Blob("x"),
		KeyDerivationSalt: models.Blob("s"),
	})
	require.Error(t, err)
}
