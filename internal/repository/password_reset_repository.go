package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PasswordResetToken is a single-use reset grant. Only the hash of the token
// mailed to the user is stored.
type PasswordResetToken struct {
	ID        string
	ProfileID string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still reset a password at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)
	// MarkUsed consumes the token. It returns pgx.ErrNoRows when the token
	// was already used.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error
	// InvalidateForProfile consumes every open token of a profile.
	InvalidateForProfile(ctx context.Context, profileID string, usedAt time.Time) error
}

type passwordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(pool *pgxpool.Pool) PasswordResetRepository {
	return &passwordResetRepository{pool: pool}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (profile_id, token_hash, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, token.ProfileID, token.TokenHash, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error) {
	const query = `
        SELECT id, profile_id, token_hash, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token_hash=$1`
	var token PasswordResetToken
	if err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.ProfileID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=$2
        WHERE id=$1 AND used_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, usedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *passwordResetRepository) InvalidateForProfile(ctx context.Context, profileID string, usedAt time.Time) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=$2
        WHERE profile_id=$1 AND used_at IS NULL`
	_, err := r.pool.Exec(ctx, query, profileID, usedAt)
	return err
}
