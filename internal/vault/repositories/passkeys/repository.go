// Package passkeys provides persistence for passkey credential records,
// with SQLite and PostgreSQL implementations behind one interface.
package passkeys

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

// storageErr marks a driver or connection failure as
// common.ErrStorageUnavailable so callers can match it with errors.Is and
// retry with backoff. Contract errors (not found, duplicate, replay) are
// never wrapped this way.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
}

// Repository describes storage operations for passkey credentials.
// Implementations are bound to a dbx.DBTX, so the same repository code runs
// against a plain connection or inside a transaction.
type Repository interface {
	// Create inserts a new credential. The id must not exist yet; a
	// collision fails with common.ErrDuplicateID and leaves the existing
	// row unmodified.
	Create(ctx context.Context, p *models.Passkey) error

	// GetByID returns the credential with the given id, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Passkey, error)

	// ListByUser returns all credentials registered by a user at a relying
	// party, ordered by id. An empty result is not an error.
	ListByUser(ctx context.Context, rpID, userID string) ([]models.Passkey, error)

	// GetAll returns every credential in the store, ordered by id.
	GetAll(ctx context.Context) ([]models.Passkey, error)

	// UpdateCounter sets the signature counter to newCounter and returns
	// the prior value for audit. The update only applies if newCounter is
	// strictly greater than the stored value; otherwise it fails with
	// common.ErrReplayDetected. Run inside dbx.WithTx so the check and the
	// write are one atomic step.
	UpdateCounter(ctx context.Context, id string, newCounter models.Counter) (models.Counter, error)

	// Upsert inserts or replaces a credential by id. An upsert that would
	// lower the stored counter fails with common.ErrReplayDetected. Used by
	// vault import, where re-importing the same vault must be harmless.
	Upsert(ctx context.Context, p *models.Passkey) error

	// Delete removes the credential, failing with common.ErrorNotFound if
	// the id is absent.
	Delete(ctx context.Context, id string) error
}
