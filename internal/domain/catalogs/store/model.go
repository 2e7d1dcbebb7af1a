// Package store provides the Store catalog.
// Stores are the physical locations all documents and ledger rows
// reference; their identity is immutable once created.
package store

import (
	"context"
	"regexp"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// Store represents a retail location.
type Store struct {
	entity.Catalog

	Address *string `db:"address" json:"address,omitempty"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`
}

// NewStore creates a new Store.
func NewStore(code, name string) *Store {
	return &Store{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (s *Store) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	if s.Email != nil && *s.Email != "" && !isValidEmail(*s.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email")
	}
	return nil
}
