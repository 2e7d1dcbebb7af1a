package store

import (
	"context"

	"tiendero/internal/domain"
)

// Repository defines the interface for Store persistence.
type Repository interface {
	domain.CatalogRepository[*Store]

	// ExistsByName reports whether an active store with the name exists.
	ExistsByName(ctx context.Context, name string) (bool, error)
}
