package credit

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// DocumentType identifies credits in the movement journal.
const DocumentType = "credit"

// Filter narrows credit listings.
type Filter struct {
	StoreID id.ID
	Kind    Kind
	Status  Status

	// CustomerSearch matches the customer name, case-insensitive.
	CustomerSearch string

	Limit  int
	Offset int
}

// Repository persists credits. The repository reads the active
// transaction from context; it never opens its own.
type Repository interface {
	// Create persists the credit header and its lines.
	Create(ctx context.Context, c *Credit) error

	// GetByID returns the credit with lines and payments loaded.
	GetByID(ctx context.Context, creditID id.ID) (*Credit, error)

	// GetForUpdate is GetByID with a row lock on the header, serializing
	// concurrent payments against the same credit.
	GetForUpdate(ctx context.Context, creditID id.ID) (*Credit, error)

	// Update persists header changes (status, completion, cancellation)
	// with an optimistic lock on Version.
	Update(ctx context.Context, c *Credit) error

	// AppendPayment inserts one payment row. Payments are append-only.
	AppendPayment(ctx context.Context, creditID id.ID, p Payment) error

	// List returns credits matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Credit], error)
}
