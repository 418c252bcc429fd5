package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chirpnet/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id, email, name, username, password_hash, verify,
	email_verify_token, forgot_password_token, date_of_birth,
	bio, location, website, avatar, cover_photo, created_at, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.Verify,
		&user.EmailVerifyToken,
		&user.ForgotPasswordToken,
		&user.DateOfBirth,
		&user.Bio,
		&user.Location,
		&user.Website,
		&user.Avatar,
		&user.CoverPhoto,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, name, username, password_hash, verify,
			email_verify_token, forgot_password_token, date_of_birth,
			bio, location, website, avatar, cover_photo, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Verify,
		user.EmailVerifyToken,
		user.ForgotPasswordToken,
		user.DateOfBirth,
		user.Bio,
		user.Location,
		user.Website,
		user.Avatar,
		user.CoverPhoto,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) SetEmailVerifyToken(ctx context.Context, id string, token string) error {
	const query = `
		UPDATE users SET email_verify_token = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MarkVerified clears the stored verify token and flips the account to
// verified in one statement.
func (r *UserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET verify = $2, email_verify_token = '', updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, models.VerifyStatusVerified)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetForgotPasswordToken(ctx context.Context, id string, token string) error {
	const query = `
		UPDATE users SET forgot_password_token = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPassword stores the new hash and consumes the forgot-password token.
func (r *UserRepository) ResetPassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users
		SET password_hash = $2, forgot_password_token = '', updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile applies only the fields present in update and returns the
// row as it is afterwards.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.DateOfBirth != nil {
		addSet("date_of_birth", *update.DateOfBirth)
	}
	if update.Bio != nil {
		addSet("bio", *update.Bio)
	}
	if update.Location != nil {
		addSet("location", *update.Location)
	}
	if update.Website != nil {
		addSet("website", *update.Website)
	}
	if update.Username != nil {
		addSet("username", *update.Username)
	}
	if update.Avatar != nil {
		addSet("avatar", *update.Avatar)
	}
	if update.CoverPhoto != nil {
		addSet("cover_photo", *update.CoverPhoto)
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), userColumns,
	)
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}
