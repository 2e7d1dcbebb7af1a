package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/auth"
	"tiendero/internal/infrastructure/storage/postgres"
)

const tokenTable = "sys_refresh_tokens"

var tokenCols = []string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at", "revoked_reason"}

var _ auth.TokenRepository = (*TokenRepo)(nil)

// TokenRepo is the PostgreSQL refresh token repository.
type TokenRepo struct {
	txManager *postgres.TxManager
}

// NewTokenRepo creates a new token repository.
func NewTokenRepo(txManager *postgres.TxManager) *TokenRepo {
	return &TokenRepo{txManager: txManager}
}

func (r *TokenRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *TokenRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// SaveRefreshToken inserts a refresh token.
func (r *TokenRepo) SaveRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	sql, args, err := r.builder().
		Insert(tokenTable).
		Columns(tokenCols...).
		Values(t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt, t.RevokedAt, t.RevokedReason).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken looks a token up by its hash.
func (r *TokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	sql, args, err := r.builder().
		Select(tokenCols...).
		From(tokenTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t auth.RefreshToken
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("refresh token", "")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &t, nil
}

// RevokeRefreshToken marks one token revoked.
func (r *TokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	sql, args, err := r.builder().
		Update(tokenTable).
		Set("revoked_at", time.Now().UTC()).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"id": tokenID}).
		Where(squirrel.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens marks all of a user's live tokens revoked.
func (r *TokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	sql, args, err := r.builder().
		Update(tokenTable).
		Set("revoked_at", time.Now().UTC()).
		Set("revoked_reason", reason).
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Eq{"revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
