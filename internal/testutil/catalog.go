package testutil

import (
	"context"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/catalogs/product"
)

// ProductCatalog is an in-memory product reader for line validation.
type ProductCatalog struct {
	products map[id.ID]*product.Product
}

// NewProductCatalog creates an empty catalog.
func NewProductCatalog() *ProductCatalog {
	return &ProductCatalog{products: make(map[id.ID]*product.Product)}
}

// Add registers an active product with the given price and returns it.
func (c *ProductCatalog) Add(sku, name string, price types.Money) *product.Product {
	p := product.NewProduct(sku, name, "test", price, types.ZeroMoney())
	c.products[p.ID] = p
	return p
}

// AddWithCost registers an active product with explicit price and cost.
func (c *ProductCatalog) AddWithCost(sku, name string, price, cost types.Money) *product.Product {
	p := product.NewProduct(sku, name, "test", price, cost)
	c.products[p.ID] = p
	return p
}

// Put registers a prepared product as-is.
func (c *ProductCatalog) Put(p *product.Product) {
	c.products[p.ID] = p
}

// GetByID implements the ProductReader interfaces of the document
// packages.
func (c *ProductCatalog) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := c.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}
