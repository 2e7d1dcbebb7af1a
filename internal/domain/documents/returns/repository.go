package returns

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// DocumentType identifies returns in the movement journal.
const DocumentType = "return"

// Filter narrows return listings.
type Filter struct {
	StoreID id.ID
	SaleID  id.ID
	Status  Status
	Kind    Kind

	Limit  int
	Offset int
}

// Repository persists returns. The repository reads the active
// transaction from context; it never opens its own.
type Repository interface {
	// Create persists the return header, its lines and exchange lines.
	Create(ctx context.Context, r *Return) error

	// GetByID returns the document with all lines loaded.
	GetByID(ctx context.Context, returnID id.ID) (*Return, error)

	// GetForUpdate is GetByID with a row lock on the header, serializing
	// concurrent transitions on the same return.
	GetForUpdate(ctx context.Context, returnID id.ID) (*Return, error)

	// Update persists header changes with an optimistic lock on Version.
	Update(ctx context.Context, r *Return) error

	// SumReturnedBySale sums previously returned quantities per product
	// for a sale, excluding rejected returns. Used to cap new returns.
	SumReturnedBySale(ctx context.Context, saleID id.ID) (map[id.ID]int64, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Return], error)
}
