package purchaseorder

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// DocumentType identifies purchase orders in the movement journal.
const DocumentType = "purchase_order"

// Filter narrows order listings.
type Filter struct {
	StoreID    id.ID
	SupplierID id.ID
	Status     Status

	Limit  int
	Offset int
}

// Repository persists purchase orders. The repository reads the active
// transaction from context; it never opens its own.
type Repository interface {
	// Create persists the order header and its lines.
	Create(ctx context.Context, po *PurchaseOrder) error

	// GetByID returns the order with lines loaded.
	GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// GetForUpdate is GetByID with a row lock on the header, serializing
	// concurrent receipts against the same order.
	GetForUpdate(ctx context.Context, orderID id.ID) (*PurchaseOrder, error)

	// Update persists the header and received quantities with an
	// optimistic lock on Version.
	Update(ctx context.Context, po *PurchaseOrder) error

	// List returns orders matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*PurchaseOrder], error)
}
