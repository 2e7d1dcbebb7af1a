package catalog_repo

import (
	"tiendero/internal/domain/catalogs/supplier"
	"tiendero/internal/infrastructure/storage/postgres"
)

var _ supplier.Repository = (*SupplierRepo)(nil)

// SupplierRepo is the PostgreSQL supplier repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_suppliers",
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}
