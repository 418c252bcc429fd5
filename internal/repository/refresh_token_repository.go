package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chirpnet/api/internal/models"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (id, user_id, token, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.pool.Exec(ctx, query, token.ID, token.UserID, token.Token)
	return err
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (models.RefreshToken, error) {
	const query = `
		SELECT id, user_id, token, created_at FROM refresh_tokens WHERE token = $1
	`
	row := r.pool.QueryRow(ctx, query, token)
	var record models.RefreshToken
	if err := row.Scan(&record.ID, &record.UserID, &record.Token, &record.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrRefreshTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return record, nil
}

// DeleteByToken reports whether a record was actually removed; logout
// treats a missing record as a no-op.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	const query = `DELETE FROM refresh_tokens WHERE token = $1`
	cmd, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *RefreshTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE created_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
