package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"servipay/internal/domain"
)

// tokenRepository implements repositories.TokenRepository against the
// mercadopago_oauth_tokens table. At most one row per professional is active;
// reads always filter on is_active and take the newest.
type tokenRepository struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *tokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) FindActiveByProfessional(ctx context.Context, professionalID int64) (*domain.OAuthToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, professional_id, access_token, refresh_token,
		       expires_in, expires_at, is_active, mp_user_id, created_at, updated_at
		FROM mercadopago_oauth_tokens
		WHERE professional_id = $1 AND is_active = true
		ORDER BY id DESC
		LIMIT 1`, professionalID)

	var t domain.OAuthToken
	if err := row.Scan(
		&t.ID, &t.ProfessionalID, &t.AccessToken, &t.RefreshToken,
		&t.ExpiresIn, &t.ExpiresAt, &t.IsActive, &t.MPUserID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *tokenRepository) UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresIn int64, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mercadopago_oauth_tokens
		   SET access_token = $2, refresh_token = $3,
		       expires_in = $4, expires_at = $5, updated_at = now()
		 WHERE id = $1`, id, accessToken, refreshToken, expiresIn, expiresAt)
	return err
}

func (r *tokenRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mercadopago_oauth_tokens
		   SET is_active = false, updated_at = now()
		 WHERE id = $1`, id)
	return err
}
