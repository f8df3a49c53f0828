package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neexbeast/vietnam-poi-finder/internal/identity"
)

const uniqueViolation = "23505"

// CreateUser inserts a new account. A duplicate email returns
// identity.ErrEmailTaken.
func (r *Repository) CreateUser(ctx context.Context, u identity.User) error {
	const q = `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`

	if _, err := r.q.Exec(ctx, q, u.ID, u.Email, u.DisplayName, u.PasswordHash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("creating user %s: %w", u.Email, err)
	}

	return nil
}

// GetUserByEmail returns nil, nil when no account has the email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	const q = `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.getUser(ctx, q, email)
}

// GetUserByID returns nil, nil when the account does not exist.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	const q = `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.getUser(ctx, q, id)
}

func (r *Repository) getUser(ctx context.Context, q, arg string) (*identity.User, error) {
	var u identity.User
	err := r.q.QueryRow(ctx, q, arg).Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user %s: %w", arg, err)
	}
	return &u, nil
}

// UpdatePassword replaces the stored hash for userID.
func (r *Repository) UpdatePassword(ctx context.Context, userID, hash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2,
		    updated_at    = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, q, userID, hash)
	if err != nil {
		return fmt.Errorf("updating password for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating password for user %s: user not found", userID)
	}

	return nil
}

// CreatePasswordReset stores a single-use reset token.
func (r *Repository) CreatePasswordReset(ctx context.Context, token, userID string, expiresAt time.Time) error {
	const q = `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.q.Exec(ctx, q, token, userID, expiresAt); err != nil {
		return fmt.Errorf("creating password reset for user %s: %w", userID, err)
	}

	return nil
}

// ConsumePasswordReset deletes the token and returns its user ID. It returns
// an empty ID when the token is unknown or expired.
func (r *Repository) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	const q = `
		DELETE FROM password_resets
		WHERE token = $1
		AND expires_at > NOW()
		RETURNING user_id
	`

	var userID string
	if err := r.q.QueryRow(ctx, q, token).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("consuming password reset: %w", err)
	}

	return userID, nil
}
