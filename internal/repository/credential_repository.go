package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
)

type CredentialRepository interface {
	GetByUserProvider(ctx context.Context, userID int64, provider string) (*models.SocialCredential, error)
	Upsert(ctx context.Context, c *models.SocialCredential) (int64, error)
	UpdateTokens(ctx context.Context, credentialID int64, accessToken, refreshToken string, expiresAt time.Time) error
	ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialCredential, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialCredential, error)
	Delete(ctx context.Context, userID int64, provider string) error
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

const credentialColumns = `id, user_id, provider, provider_account_id, account_name, access_token, refresh_token, expires_at, created_at, updated_at`

func (r *credentialRepository) GetByUserProvider(ctx context.Context, userID int64, provider string) (*models.SocialCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM social_credentials WHERE user_id = $1 AND provider = $2`
	row := r.db.QueryRowContext(ctx, query, userID, provider)

	cred, err := scanCredential(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return cred, nil
}

// Upsert creates the credential or, when the same external account is
// reconnected by its owner, replaces the stored token set. Linking one
// external account to two users is rejected with ErrConflict.
func (r *credentialRepository) Upsert(ctx context.Context, c *models.SocialCredential) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	var existingID, existingUserID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id FROM social_credentials WHERE provider = $1 AND provider_account_id = $2`,
		c.Provider, c.ProviderAccountID).Scan(&existingID, &existingUserID)
	if err != nil && err != sql.ErrNoRows {
		slog.Info(err.Error())
		return 0, err
	}

	expiresAt := sql.NullTime{Time: c.ExpiresAt, Valid: !c.ExpiresAt.IsZero()}

	if err == nil {
		if existingUserID != c.UserID {
			return 0, ErrConflict
		}

		updateQuery := `
			UPDATE social_credentials
			SET account_name = $2,
				access_token = $3,
				refresh_token = $4,
				expires_at = $5,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, updateQuery, existingID, c.AccountName, c.AccessToken, c.RefreshToken, expiresAt); err != nil {
			slog.Info(err.Error())
			return 0, err
		}

		if err := tx.Commit(); err != nil {
			slog.Info(err.Error())
			return 0, err
		}
		return existingID, nil
	}

	insertQuery := `
		INSERT INTO social_credentials (user_id, provider, provider_account_id, account_name, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err = tx.QueryRowContext(ctx, insertQuery,
		c.UserID, c.Provider, c.ProviderAccountID, c.AccountName, c.AccessToken, c.RefreshToken, expiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

// UpdateTokens replaces the full token triple in one statement so a
// concurrent reader never observes a half-written row. An empty refresh
// token keeps the previous one (some providers rotate it, some do not).
func (r *credentialRepository) UpdateTokens(ctx context.Context, credentialID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_credentials
		SET access_token = $2,
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, credentialID, accessToken, refreshToken,
		sql.NullTime{Time: expiresAt, Valid: !expiresAt.IsZero()})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepository) ListExpiring(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialCredential, error) {
	query := `SELECT ` + credentialColumns + `
		FROM social_credentials
		WHERE refresh_token <> ''
		AND ((expires_at BETWEEN $1 AND $2) OR (expires_at < $1))`
	return r.queryCredentials(ctx, query, initialTime, finalTime)
}

func (r *credentialRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM social_credentials WHERE user_id = $1`
	return r.queryCredentials(ctx, query, userID)
}

func (r *credentialRepository) queryCredentials(ctx context.Context, query string, args ...interface{}) ([]*models.SocialCredential, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.SocialCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, cred)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return creds, nil
}

func scanCredential(row rowScanner) (*models.SocialCredential, error) {
	var c models.SocialCredential
	var expiresAt sql.NullTime

	err := row.Scan(&c.ID, &c.UserID, &c.Provider, &c.ProviderAccountID, &c.AccountName,
		&c.AccessToken, &c.RefreshToken, &expiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.ExpiresAt = expiresAt.Time
	return &c, nil
}

// Delete removes the credential for (user, provider). Deleting a
// credential that does not exist returns ErrNotFound.
func (r *credentialRepository) Delete(ctx context.Context, userID int64, provider string) error {
	query := `DELETE FROM social_credentials WHERE user_id = $1 AND provider = $2`
	result, err := r.db.ExecContext(ctx, query, userID, provider)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
