package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/repomanager"
)

// VaultService moves whole vaults in and out of the store: export seals
// every passkey to a peer's open box (or a passphrase), import unseals a
// box and upserts its contents.
type VaultService struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func NewVaultService(db *sql.DB, manager repomanager.RepositoryManager, logger logging.Logger) *VaultService {
	return &VaultService{db: db, manager: manager, logger: logger}
}

// Snapshot collects every passkey into a vault payload.
func (s *VaultService) Snapshot(ctx context.Context) (*models.Vault, error) {
	all, err := s.manager.Passkeys(s.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = []models.Passkey{}
	}
	return &models.Vault{Passkeys: all}, nil
}

// Export seals the whole store to the importing party's open box with a
// fresh ephemeral key pair.
func (s *VaultService) Export(ctx context.Context, openBox *models.OpenBox) (*models.SealedBox, error) {
	payload, err := s.snapshotJSON(ctx)
	if err != nil {
		return nil, err
	}

	kp, err := cryptox.NewKeyPair()
	if err != nil {
		return nil, err
	}

	encrypted, salt, err := kp.Seal(openBox.PublicKey, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to seal vault: %w", err)
	}

	s.logger.Info(ctx, "vault sealed for export")
	return &models.SealedBox{
		PublicKey:         kp.PublicKey(),
		EncryptedVault:    encrypted,
		KeyDerivationSalt: salt,
	}, nil
}

// ExportWithPassphrase seals the whole store under an argon2id-derived key
// instead of a peer's public key.
func (s *VaultService) ExportWithPassphrase(ctx context.Context, passphrase []byte) (*models.SealedBox, error) {
	payload, err := s.snapshotJSON(ctx)
	if err != nil {
		return nil, err
	}

	encrypted, salt, err := cryptox.SealWithPassphrase(passphrase, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to seal vault: %w", err)
	}

	s.logger.Info(ctx, "vault sealed for export", "mode", "passphrase")
	return &models.SealedBox{
		EncryptedVault:    encrypted,
		KeyDerivationSalt: salt,
	}, nil
}

func (s *VaultService) snapshotJSON(ctx context.Context) ([]byte, error) {
	vault, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(vault)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vault: %w", err)
	}
	return payload, nil
}

// ImportResult reports what an import did: how many records landed and
// which ids were skipped because the incoming counter was behind the store.
type ImportResult struct {
	Imported int
	Skipped  []string
}

// Import upserts every passkey of a decoded vault in one transaction.
// Records whose counter would move backwards are skipped and reported, not
// applied; an import must never weaken the anti-replay invariant.
func (s *VaultService) Import(ctx context.Context, vault *models.Vault) (*ImportResult, error) {
	res := &ImportResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.manager.Passkeys(tx)
		for i := range vault.Passkeys {
			p := &vault.Passkeys[i]
			if err := p.Validate(); err != nil {
				return fmt.Errorf("%w: %v", common.ErrorInvalidCredential, err)
			}
			err := repo.Upsert(ctx, p)
			if errors.Is(err, common.ErrReplayDetected) {
				s.logger.Warn(ctx, "import skipped stale credential", "id", p.ID)
				res.Skipped = append(res.Skipped, p.ID)
				continue
			}
			if err != nil {
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "vault imported", "imported", res.Imported, "skipped", len(res.Skipped))
	return res, nil
}

// DecodeVault opens a sealed box with the importing key pair and decodes
// the vault JSON it carries.
func DecodeVault(kp *cryptox.KeyPair, sealed *models.SealedBox) (*models.Vault, error) {
	if sealed.Passphrase() {
		return nil, fmt.Errorf("sealed box requires a passphrase")
	}
	payload, err := kp.Open(sealed.PublicKey, sealed.KeyDerivationSalt, sealed.EncryptedVault)
	if err != nil {
		return nil, err
	}
	return decodeVaultJSON(payload)
}

// DecodeVaultWithPassphrase opens a passphrase-mode sealed box.
func DecodeVaultWithPassphrase(passphrase []byte, sealed *models.SealedBox) (*models.Vault, error) {
	if !sealed.Passphrase() {
		return nil, fmt.Errorf("sealed box was sealed to a key pair, not a passphrase")
	}
	payload, err := cryptox.OpenWithPassphrase(passphrase, sealed.KeyDerivationSalt, sealed.EncryptedVault)
	if err != nil {
		return nil, err
	}
	return decodeVaultJSON(payload)
}

func decodeVaultJSON(payload []byte) (*models.Vault, error) {
	var vault models.Vault
	if err := json.Unmarshal(payload, &vault); err != nil {
		return nil, fmt.Errorf("failed to decode vault json: %w", err)
	}
	return &vault, nil
}
