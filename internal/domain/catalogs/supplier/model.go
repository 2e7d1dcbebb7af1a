// Package supplier provides the Supplier catalog referenced by purchase orders.
package supplier

import (
	"context"

	"tiendero/internal/core/entity"
)

// Supplier represents a goods supplier.
type Supplier struct {
	entity.Catalog

	ContactName *string `db:"contact_name" json:"contactName,omitempty"`
	Phone       *string `db:"phone" json:"phone,omitempty"`
	Email       *string `db:"email" json:"email,omitempty"`
	Address     *string `db:"address" json:"address,omitempty"`
	TaxID       *string `db:"tax_id" json:"taxId,omitempty"`
}

// NewSupplier creates a new Supplier.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}
