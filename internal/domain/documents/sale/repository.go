package sale

import (
	"context"
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// DocumentType identifies sales in the movement journal.
const DocumentType = "sale"

// Filter narrows sale listings.
type Filter struct {
	StoreID id.ID
	Status  Status

	FromDate *time.Time
	ToDate   *time.Time

	Limit  int
	Offset int
}

// Repository persists sales. The repository reads the active transaction
// from context; it never opens its own.
type Repository interface {
	// Create persists the sale header and its lines.
	Create(ctx context.Context, s *Sale) error

	// GetByID returns the sale with lines loaded.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// Update persists header changes (status, cancellation metadata)
	// with an optimistic lock on Version.
	Update(ctx context.Context, s *Sale) error

	// List returns sales matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Sale], error)
}
