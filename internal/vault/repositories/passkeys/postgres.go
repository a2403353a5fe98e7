package passkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/vault/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Passkey) error {
	query := `
		INSERT INTO passkeys (id, rp_id, rp_name, user_id, username, counter, key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.RelyingPartyID, p.RelyingPartyName, p.UserID, p.Username,
		int64(p.Counter), cryptox.EncodeBase64(p.Key))
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrDuplicateID
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Passkey, error) {
	query := `
		SELECT id, rp_id, rp_name, user_id, username, counter, key
		FROM passkeys WHERE id = $1;
	`
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanPasskey(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, rpID, userID string) ([]models.Passkey, error) {
	query := `
		SELECT id, rp_id, rp_name, user_id, username, counter, key
		FROM passkeys WHERE rp_id = $1 AND user_id = $2 ORDER BY id;
	`
	rows, err := r.db.QueryContext(ctx, query, rpID, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectPasskeys(rows)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.Passkey, error) {
	query := `
		SELECT id, rp_id, rp_name, user_id, username, counter, key
		FROM passkeys ORDER BY id;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectPasskeys(rows)
}

// UpdateCounter advances the signature counter. The guarded UPDATE only
// matches while the stored value equals the one just read; combined with
// dbx.WithTx this serializes concurrent authentication attempts.
func (r *PostgresRepository) UpdateCounter(ctx context.Context, id string, newCounter models.Counter) (models.Counter, error) {
	var prior int64
	err := r.db.QueryRowContext(ctx, `SELECT counter FROM passkeys WHERE id = $1;`, id).Scan(&prior)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, storageErr(err)
	}

	if int64(newCounter) <= prior {
		return models.Counter(prior), common.ErrReplayDetected
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE passkeys SET counter = $2 WHERE id = $1 AND counter = $3;`,
		id, int64(newCounter), prior)
	if err != nil {
		return 0, storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(err)
	}
	switch n {
	case 1:
		return models.Counter(prior), nil
	case 0:
		return models.Counter(prior), common.ErrReplayDetected
	default:
		return 0, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Passkey) error {
	query := `
		INSERT INTO passkeys (id, rp_id, rp_name, user_id, username, counter, key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET
			rp_id = EXCLUDED.rp_id,
			rp_name = EXCLUDED.rp_name,
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			counter = EXCLUDED.counter,
			key = EXCLUDED.key
			WHERE EXCLUDED.counter >= passkeys.counter;
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.RelyingPartyID, p.RelyingPartyName, p.UserID, p.Username,
		int64(p.Counter), cryptox.EncodeBase64(p.Key))
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrReplayDetected
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passkeys WHERE id = $1;`, id)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
