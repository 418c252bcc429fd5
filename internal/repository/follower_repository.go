package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chirpnet/api/internal/models"
)

type FollowerRepository struct {
	pool *pgxpool.Pool
}

func NewFollowerRepository(pool *pgxpool.Pool) *FollowerRepository {
	return &FollowerRepository{pool: pool}
}

func (r *FollowerRepository) Exists(ctx context.Context, userID string, followerUserID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM followers WHERE user_id = $1 AND follower_user_id = $2
		)
	`
	row := r.pool.QueryRow(ctx, query, userID, followerUserID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create relies on the composite unique key, so a concurrent duplicate
// insert degrades to a no-op instead of an error or a second edge.
func (r *FollowerRepository) Create(ctx context.Context, edge models.Follower) error {
	const query = `
		INSERT INTO followers (id, user_id, follower_user_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, follower_user_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, edge.ID, edge.UserID, edge.FollowerUserID)
	return err
}

func (r *FollowerRepository) Delete(ctx context.Context, userID string, followerUserID string) (bool, error) {
	const query = `
		DELETE FROM followers WHERE user_id = $1 AND follower_user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, userID, followerUserID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
