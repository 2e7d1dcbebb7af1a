package product

import (
	"context"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetBySKU retrieves an active product by SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// GetByBarcode retrieves an active product by barcode.
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)

	// ExistsBySKU reports whether any product (including soft-deleted)
	// holds the SKU.
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// AppendPriceHistory records a price/cost change.
	AppendPriceHistory(ctx context.Context, entry *PriceHistory) error

	// PriceHistory returns change entries, newest first.
	PriceHistory(ctx context.Context, productID id.ID, limit int) ([]PriceHistory, error)
}
