package dto

import (
	"time"

	"tiendero/internal/domain/auth"
)

// LoginRequest for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SetActiveRequest enables or disables a user.
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// UserListRequest filters user listings.
type UserListRequest struct {
	Search  string `form:"search"`
	StoreID string `form:"storeId"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// LoginResponse carries the issued tokens with the user.
type LoginResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	TokenType    string     `json:"tokenType"`
	User         *auth.User `json:"user"`
}

// NewLoginResponse builds the login payload.
func NewLoginResponse(pair *auth.TokenPair, user *auth.User) LoginResponse {
	return LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		TokenType:    pair.TokenType,
		User:         user,
	}
}
