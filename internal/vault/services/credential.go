// Package services implements the application services on top of the
// passkey repositories: credential lifecycle and vault import/export.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
	"github.com/dmitrijs2005/passkeeper/internal/vault/repositories/repomanager"
)

// CredentialService owns the credential lifecycle: registration, lookup,
// counter advancement after a verified authentication, and revocation.
type CredentialService struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func NewCredentialService(db *sql.DB, manager repomanager.RepositoryManager, logger logging.Logger) *CredentialService {
	return &CredentialService{db: db, manager: manager, logger: logger}
}

// Register stores a new credential. The record must be fully populated with
// a zero counter; registration is the only moment a credential is created.
func (s *CredentialService) Register(ctx context.Context, p *models.Passkey) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInvalidCredential, err)
	}
	if p.Counter != 0 {
		return fmt.Errorf("%w: counter must start at 0", common.ErrorInvalidCredential)
	}

	if err := s.manager.Passkeys(s.db).Create(ctx, p); err != nil {
		return err
	}

	s.logger.Info(ctx, "credential registered", "id", p.ID, "rp_id", p.RelyingPartyID, "user_id", p.UserID)
	return nil
}

// Get returns a single credential by id.
func (s *CredentialService) Get(ctx context.Context, id string) (*models.Passkey, error) {
	return s.manager.Passkeys(s.db).GetByID(ctx, id)
}

// List returns the credentials a user registered at a relying party.
func (s *CredentialService) List(ctx context.Context, rpID, userID string) ([]models.Passkey, error) {
	return s.manager.Passkeys(s.db).ListByUser(ctx, rpID, userID)
}

// All returns every credential in the store.
func (s *CredentialService) All(ctx context.Context) ([]models.Passkey, error) {
	return s.manager.Passkeys(s.db).GetAll(ctx)
}

// AdvanceCounter records the signature counter observed during a verified
// authentication. The check-and-set runs in one transaction; a counter that
// fails to advance is reported as common.ErrReplayDetected and logged, since
// it indicates a cloned authenticator or a replayed assertion. It returns
// the prior counter value for audit.
func (s *CredentialService) AdvanceCounter(ctx context.Context, id string, newCounter models.Counter) (models.Counter, error) {
	var prior models.Counter

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		prior, err = s.manager.Passkeys(tx).UpdateCounter(ctx, id, newCounter)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrReplayDetected) {
			s.logger.Warn(ctx, "replay detected",
				"id", id, "stored_counter", prior, "proposed_counter", newCounter)
		}
		return prior, err
	}

	s.logger.Debug(ctx, "counter advanced", "id", id, "from", prior, "to", newCounter)
	return prior, nil
}

// Revoke removes a credential. Revocation is terminal; the id is never
// reused.
func (s *CredentialService) Revoke(ctx context.Context, id string) error {
	if err := s.manager.Passkeys(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "credential revoked", "id", id)
	return nil
}
