package auth

import (
	"context"

	"tiendero/internal/core/id"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Search   string
	StoreID  id.ID
	IsActive *bool
	Limit    int
	Offset   int
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, filter UserFilter) ([]User, int, error)
}

// TokenRepository persists refresh tokens.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}
