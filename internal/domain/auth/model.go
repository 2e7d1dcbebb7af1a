// Package auth provides authentication and authorization domain logic.
//
// Roles are binary: an admin has no store binding and full access; a
// store user is scoped to exactly one store. The binding lives on the
// user row and travels inside the access token, so handlers never
// re-derive it.
package auth

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
)

// User represents a system user.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Name         string `db:"name" json:"name,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`
	IsAdmin  bool `db:"is_admin" json:"isAdmin"`

	// StoreID is set for store users, nil for admins.
	StoreID *id.ID `db:"store_id" json:"storeId,omitempty"`

	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`
}

// NewAdmin creates an admin user.
func NewAdmin(email, passwordHash string) *User {
	u := newUser(email, passwordHash)
	u.IsAdmin = true
	return u
}

// NewStoreUser creates a user scoped to one store.
func NewStoreUser(email, passwordHash string, storeID id.ID) *User {
	u := newUser(email, passwordHash)
	u.StoreID = &storeID
	return u
}

func newUser(email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if !u.IsAdmin && (u.StoreID == nil || id.IsNil(*u.StoreID)) {
		return apperror.NewValidation("store users require a store").
			WithDetail("field", "storeId")
	}
	if u.IsAdmin && u.StoreID != nil {
		return apperror.NewValidation("admins carry no store binding").
			WithDetail("field", "storeId")
	}
	return nil
}

// IsLocked returns true if the account is locked out.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if the user may authenticate.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewAccountLocked(*u.LockedUntil)
	}
	return nil
}

// RecordFailedLogin increments the failed login counter, locking the
// account once maxAttempts is reached.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// StoreIDString returns the bound store id, empty for admins.
func (u *User) StoreIDString() string {
	if u.StoreID == nil {
		return ""
	}
	return u.StoreID.String()
}

// RefreshToken represents a refresh token for JWT refresh.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
}

// IsValid checks if the refresh token is usable.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest for user registration (admin-only operation).
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	StoreID  string `json:"storeId,omitempty"`
}
