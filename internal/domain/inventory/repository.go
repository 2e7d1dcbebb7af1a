package inventory

import (
	"context"
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
)

// Repository defines persistence operations for the stock ledger.
//
// All mutating methods must run inside the caller's transaction; the
// repository reads the active transaction from context and never opens
// its own.
type Repository interface {
	// Get returns the ledger row, or found=false when the store has no
	// row for the product.
	Get(ctx context.Context, storeID, productID id.ID) (*Ledger, bool, error)

	// GetForUpdate reads the row with a pessimistic lock (FOR UPDATE) so
	// concurrent decrements of the same row serialize.
	GetForUpdate(ctx context.Context, storeID, productID id.ID) (*Ledger, bool, error)

	// Create inserts a new ledger row.
	Create(ctx context.Context, ledger *Ledger) error

	// UpdateQuantity writes a new balance. restocked marks receipt-type
	// updates so last_restock_at is refreshed.
	UpdateQuantity(ctx context.Context, storeID, productID id.ID, quantity types.Quantity, restocked bool) error

	// UpdateThresholds stores min/max stock levels.
	UpdateThresholds(ctx context.Context, storeID, productID id.ID, minStock, maxStock types.Quantity) error

	// ListByStore returns ledger rows for one store.
	ListByStore(ctx context.Context, storeID id.ID, filter domain.ListFilter) (domain.ListResult[*Ledger], error)

	// ListLowStock returns rows at or below their reorder threshold.
	ListLowStock(ctx context.Context, storeID id.ID) ([]*Ledger, error)

	// RecordMovements appends journal rows for applied adjustments.
	RecordMovements(ctx context.Context, movements []Movement) error

	// MovementHistory returns the journal for a product.
	MovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	StoreID  *id.ID
	Reason   *Reason
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
