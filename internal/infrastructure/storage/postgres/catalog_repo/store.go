package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"tiendero/internal/domain/catalogs/store"
	"tiendero/internal/infrastructure/storage/postgres"
)

var _ store.Repository = (*StoreRepo)(nil)

// StoreRepo is the PostgreSQL store repository.
type StoreRepo struct {
	*BaseCatalogRepo[*store.Store]
}

// NewStoreRepo creates a new store repository.
func NewStoreRepo(txManager *postgres.TxManager) *StoreRepo {
	return &StoreRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			"cat_stores",
			postgres.ExtractDBColumns[store.Store](),
			func() *store.Store { return &store.Store{} },
		),
	}
}

// ExistsByName checks for a non-deleted store with the given name.
func (r *StoreRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From("cat_stores").
		Where(squirrel.Eq{"name": name}).
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
		return false, fmt.Errorf("exists by name: %w", err)
	}
	return true, nil
}
