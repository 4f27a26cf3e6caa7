package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository persists the two append-only token sets: revoked session
// jtis and consumed password-reset tokens.
type TokenRepository interface {
	Revoke(ctx context.Context, jti string) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	MarkResetTokenUsed(ctx context.Context, token string) error
	IsResetTokenUsed(ctx context.Context, token string) (bool, error)
}

type tokenRepository struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Revoke(ctx context.Context, jti string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx,
		`INSERT INTO revoked_tokens (jti) VALUES ($1) ON CONFLICT DO NOTHING`, jti)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *tokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var revoked bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return revoked, nil
}

func (r *tokenRepository) MarkResetTokenUsed(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.db.Exec(ctx,
		`INSERT INTO used_reset_tokens (token) VALUES ($1) ON CONFLICT DO NOTHING`, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *tokenRepository) IsResetTokenUsed(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var used bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM used_reset_tokens WHERE token = $1)`, token).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return used, nil
}
