// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains authenticated user information.
//
// A user is either an admin (StoreID empty, full access) or a store user
// bound to exactly one store. The binding is established at token issue
// time, so handlers never re-derive it from the database.
type UserContext struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool

	// StoreID is the store a non-admin user is scoped to. Empty for admins.
	StoreID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// IsAdmin reports whether the authenticated user is an admin.
func IsAdmin(ctx context.Context) bool {
	if u := GetUser(ctx); u != nil {
		return u.IsAdmin
	}
	return false
}

// HasStoreAccess checks if the user may act on the given store.
// Admins may act on any store; store users only on their own.
func HasStoreAccess(ctx context.Context, storeID string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if u.IsAdmin {
		return true
	}
	return u.StoreID != "" && u.StoreID == storeID
}
