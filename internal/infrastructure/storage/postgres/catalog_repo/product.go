package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tiendero/internal/core/id"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/infrastructure/storage/postgres"
)

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo is the PostgreSQL product repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_products",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetBySKU retrieves a non-deleted product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.FindOne(ctx, r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1))
}

// GetByBarcode retrieves a non-deleted product by barcode.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	return r.FindOne(ctx, r.baseSelect().
		Where(squirrel.Eq{"barcode": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1))
}

// ExistsBySKU checks for a non-deleted product with the SKU.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From("cat_products").
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by sku: %w", err)
	}
	return true, nil
}

// AppendPriceHistory inserts one price history row.
func (r *ProductRepo) AppendPriceHistory(ctx context.Context, h *product.PriceHistory) error {
	sql, args, err := r.Builder().
		Insert("cat_product_price_history").
		Columns("id", "product_id", "old_price", "new_price", "old_cost", "new_cost", "changed_by", "changed_at").
		Values(h.ID, h.ProductID, h.OldPrice, h.NewPrice, h.OldCost, h.NewCost, h.ChangedBy, h.ChangedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}
	return nil
}

// PriceHistory lists price changes for a product, newest first.
func (r *ProductRepo) PriceHistory(ctx context.Context, productID id.ID, limit int) ([]product.PriceHistory, error) {
	sql, args, err := r.Builder().
		Select("id", "product_id", "old_price", "new_price", "old_cost", "new_cost", "changed_by", "changed_at").
		From("cat_product_price_history").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("changed_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var history []product.PriceHistory
	if err := pgxscan.Select(ctx, r.querier(ctx), &history, sql, args...); err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	return history, nil
}
