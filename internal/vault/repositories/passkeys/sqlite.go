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

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, p *models.Passkey) error {
	query := `INSERT INTO passkeys (id, rp_id, rp_name, user_id, username, counter, key)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`
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

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Passkey, error) {
	query := `SELECT id, rp_id, rp_name, user_id, username, counter, key
			FROM passkeys WHERE id = ?`
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

func (r *SQLiteRepository) ListByUser(ctx context.Context, rpID, userID string) ([]models.Passkey, error) {
	query := `SELECT id, rp_id, rp_name, user_id, username, counter, key
			FROM passkeys WHERE rp_id = ? AND user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, rpID, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectPasskeys(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Passkey, error) {
	query := `SELECT id, rp_id, rp_name, user_id, username, counter, key
			FROM passkeys ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	return collectPasskeys(rows)
}

// UpdateCounter advances the signature counter. The guarded UPDATE only
// matches when the stored counter still equals the value just read, so two
// concurrent updates from the same base produce exactly one success.
func (r *SQLiteRepository) UpdateCounter(ctx context.Context, id string, newCounter models.Counter) (models.Counter, error) {
	var prior int64
	err := r.db.QueryRowContext(ctx, `SELECT counter FROM passkeys WHERE id = ?`, id).Scan(&prior)
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
		`UPDATE passkeys SET counter = ? WHERE id = ? AND counter = ?`,
		int64(newCounter), id, prior)
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
		// A concurrent update won the race.
		return models.Counter(prior), common.ErrReplayDetected
	default:
		return 0, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Upsert inserts or replaces by id. The conflict branch refuses to lower an
// existing counter: rows affected 0 means the incoming record is stale.
func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Passkey) error {
	query := `INSERT INTO passkeys (id, rp_id, rp_name, user_id, username, counter, key)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				rp_id = excluded.rp_id,
				rp_name = excluded.rp_name,
				user_id = excluded.user_id,
				username = excluded.username,
				counter = excluded.counter,
				key = excluded.key
			WHERE excluded.counter >= passkeys.counter`
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

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM passkeys WHERE id = ?`, id)
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

// scanPasskey maps one row onto a Passkey, decoding the base64 key column.
func scanPasskey(scan func(dest ...any) error) (*models.Passkey, error) {
	var p models.Passkey
	var counter int64
	var encodedKey string
	if err := scan(&p.ID, &p.RelyingPartyID, &p.RelyingPartyName,
		&p.UserID, &p.Username, &counter, &encodedKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	key, err := cryptox.DecodeBase64(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid key encoding for %s: %w", p.ID, err)
	}
	p.Counter = models.Counter(counter)
	p.Key = key
	return &p, nil
}

func collectPasskeys(rows *sql.Rows) ([]models.Passkey, error) {
	defer rows.Close()

	var result []models.Passkey
	for rows.Next() {
		p, err := scanPasskey(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return result, nil
}
