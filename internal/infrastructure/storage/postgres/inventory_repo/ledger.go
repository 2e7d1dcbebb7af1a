// Package inventory_repo provides the PostgreSQL stock ledger
// repository.
package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	ledgerTable   = "reg_inventory"
	movementTable = "reg_inventory_movements"
)

var _ inventory.Repository = (*LedgerRepo)(nil)

// LedgerRepo is the PostgreSQL inventory ledger repository.
type LedgerRepo struct {
	txManager  *postgres.TxManager
	ledgerCols []string
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager:  txManager,
		ledgerCols: postgres.ExtractDBColumns[inventory.Ledger](),
	}
}

func (r *LedgerRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LedgerRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *LedgerRepo) get(ctx context.Context, storeID, productID id.ID, forUpdate bool) (*inventory.Ledger, bool, error) {
	q := r.builder().
		Select(r.ledgerCols...).
		From(ledgerTable).
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Eq{"product_id": productID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build query: %w", err)
	}

	var ledger inventory.Ledger
	if err := pgxscan.Get(ctx, r.querier(ctx), &ledger, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get ledger: %w", err)
	}
	return &ledger, true, nil
}

// Get returns the ledger row for (store, product).
func (r *LedgerRepo) Get(ctx context.Context, storeID, productID id.ID) (*inventory.Ledger, bool, error) {
	return r.get(ctx, storeID, productID, false)
}

// GetForUpdate reads the row with a FOR UPDATE lock.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, storeID, productID id.ID) (*inventory.Ledger, bool, error) {
	return r.get(ctx, storeID, productID, true)
}

// Create inserts a new ledger row.
func (r *LedgerRepo) Create(ctx context.Context, ledger *inventory.Ledger) error {
	data := postgres.StructToMap(ledger)

	filtered := make(map[string]any, len(r.ledgerCols))
	for _, col := range r.ledgerCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(ledgerTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger: %w", err)
	}
	return nil
}

// UpdateQuantity writes a new balance for a locked row.
func (r *LedgerRepo) UpdateQuantity(ctx context.Context, storeID, productID id.ID, quantity types.Quantity, restocked bool) error {
	q := r.builder().
		Update(ledgerTable).
		Set("quantity", quantity).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Eq{"product_id": productID})
	if restocked {
		q = q.Set("last_restock_at", time.Now().UTC())
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger row vanished for store=%s product=%s", storeID, productID)
	}
	return nil
}

// UpdateThresholds stores min/max stock levels.
func (r *LedgerRepo) UpdateThresholds(ctx context.Context, storeID, productID id.ID, minStock, maxStock types.Quantity) error {
	sql, args, err := r.builder().
		Update(ledgerTable).
		Set("min_stock", minStock).
		Set("max_stock", maxStock).
		Set("updated_at", time.Now().UTC()).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update thresholds: %w", err)
	}
	return nil
}

// ListByStore returns ledger rows for one store, joined product names
// searchable through the filter.
func (r *LedgerRepo) ListByStore(ctx context.Context, storeID id.ID, filter domain.ListFilter) (domain.ListResult[*inventory.Ledger], error) {
	result := domain.ListResult[*inventory.Ledger]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder().
		Select(prefixColumns("l", r.ledgerCols)...).
		From(ledgerTable + " l").
		Where(squirrel.Eq{"l.store_id": storeID})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Join("cat_products p ON p.id = l.product_id").
			Where(squirrel.Or{
				squirrel.ILike{"p.name": pattern},
				squirrel.ILike{"p.sku": pattern},
			})
	}

	countSQL, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("l.updated_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list ledgers: %w", err)
	}
	return result, nil
}

// ListLowStock returns rows at or below their reorder threshold.
func (r *LedgerRepo) ListLowStock(ctx context.Context, storeID id.ID) ([]*inventory.Ledger, error) {
	sql, args, err := r.builder().
		Select(r.ledgerCols...).
		From(ledgerTable).
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Expr("quantity <= min_stock")).
		OrderBy("quantity ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.Ledger
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return items, nil
}

// RecordMovements appends journal rows in one multi-row insert.
func (r *LedgerRepo) RecordMovements(ctx context.Context, movements []inventory.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	q := r.builder().
		Insert(movementTable).
		Columns("line_id", "document_id", "document_type", "store_id", "product_id", "delta", "reason", "created_at")
	for _, m := range movements {
		q = q.Values(m.LineID, m.DocumentID, m.DocumentType, m.StoreID, m.ProductID, m.Delta, m.Reason, m.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// MovementHistory returns the journal for a product, newest first.
func (r *LedgerRepo) MovementHistory(ctx context.Context, productID id.ID, filter inventory.MovementFilter) ([]inventory.Movement, error) {
	q := r.builder().
		Select("line_id", "document_id", "document_type", "store_id", "product_id", "delta", "reason", "created_at").
		From(movementTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.Reason != nil {
		q = q.Where(squirrel.Eq{"reason": *filter.Reason})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []inventory.Movement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// prefixColumns qualifies columns with a table alias.
func prefixColumns(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}
