// Package product provides the Product catalog and its price history.
package product

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Product represents a sellable item. SKU is unique; barcode is unique
// when present. The row holds only current price and cost; every change
// is append-logged to PriceHistory.
type Product struct {
	entity.Catalog

	SKU      string  `db:"sku" json:"sku"`
	Barcode  *string `db:"barcode" json:"barcode,omitempty"`
	Category string  `db:"category" json:"category"`

	Price types.Money `db:"price" json:"price"`
	Cost  types.Money `db:"cost" json:"cost"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product.
func NewProduct(sku, name, category string, price, cost types.Money) *Product {
	p := &Product{
		Catalog:  entity.NewCatalog("", name),
		SKU:      sku,
		Category: category,
		Price:    price,
		Cost:     cost,
	}
	p.Code = sku
	return p
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	if p.Cost.IsNegative() {
		return apperror.NewValidation("cost cannot be negative").
			WithDetail("field", "cost")
	}
	return nil
}

// PriceChanged reports whether price or cost differ from the stored values.
func (p *Product) PriceChanged(price, cost types.Money) bool {
	return !p.Price.Equal(price) || !p.Cost.Equal(cost)
}

// PriceHistory is an append-only log entry for a price/cost change.
type PriceHistory struct {
	ID        id.ID       `db:"id" json:"id"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	OldPrice  types.Money `db:"old_price" json:"oldPrice"`
	NewPrice  types.Money `db:"new_price" json:"newPrice"`
	OldCost   types.Money `db:"old_cost" json:"oldCost"`
	NewCost   types.Money `db:"new_cost" json:"newCost"`
	ChangedBy string      `db:"changed_by" json:"changedBy"`
	ChangedAt time.Time   `db:"changed_at" json:"changedAt"`
}
