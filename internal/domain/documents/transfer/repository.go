package transfer

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// DocumentType identifies transfers in the movement journal.
const DocumentType = "transfer"

// Filter narrows transfer listings. StoreID matches either end.
type Filter struct {
	StoreID id.ID
	Status  Status

	Limit  int
	Offset int
}

// Repository persists transfers. The repository reads the active
// transaction from context; it never opens its own.
type Repository interface {
	// Create persists the transfer header and its lines.
	Create(ctx context.Context, t *Transfer) error

	// GetByID returns the transfer with lines loaded.
	GetByID(ctx context.Context, transferID id.ID) (*Transfer, error)

	// GetForUpdate is GetByID with a row lock on the header, serializing
	// concurrent transitions on the same transfer.
	GetForUpdate(ctx context.Context, transferID id.ID) (*Transfer, error)

	// Update persists the header and received quantities with an
	// optimistic lock on Version.
	Update(ctx context.Context, t *Transfer) error

	// List returns transfers matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Transfer], error)
}
