package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/purchaseorder"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrderTable     = "doc_purchase_orders"
	purchaseOrderLineTable = "doc_purchase_order_lines"
)

var purchaseOrderLineCols = []string{"line_id", "line_no", "product_id", "quantity_ordered", "quantity_received", "unit_cost", "subtotal"}

var _ purchaseorder.Repository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo is the PostgreSQL purchase order repository.
type PurchaseOrderRepo struct {
	baseDocRepo
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  purchaseOrderTable,
		headerCols: postgres.ExtractDBColumns[purchaseorder.PurchaseOrder](),
	}}
}

// Create persists the order header and its lines.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	if err := r.insertHeader(ctx, po); err != nil {
		return err
	}

	q := r.builder().
		Insert(purchaseOrderLineTable).
		Columns(append([]string{"order_id"}, purchaseOrderLineCols...)...)
	for _, line := range po.Items {
		q = q.Values(po.ID, line.LineID, line.LineNo, line.ProductID,
			line.QuantityOrdered, line.QuantityReceived, line.UnitCost, line.Subtotal)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase order lines: %w", err)
	}
	return nil
}

// GetByID returns the order with lines loaded.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*purchaseorder.PurchaseOrder, error) {
	return r.get(ctx, orderID, false)
}

// GetForUpdate locks the header row, serializing concurrent receipts.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*purchaseorder.PurchaseOrder, error) {
	return r.get(ctx, orderID, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*purchaseorder.PurchaseOrder, error) {
	q := r.headerSelect().Where(squirrel.Eq{"id": orderID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var po purchaseorder.PurchaseOrder
	if err := pgxscan.Get(ctx, r.querier(ctx), &po, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", orderID.String())
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}

	if err := r.loadLines(ctx, &po); err != nil {
		return nil, err
	}
	return &po, nil
}

// Update persists the header and per-line received quantities.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	if err := r.updateHeader(ctx, po); err != nil {
		return err
	}

	for _, line := range po.Items {
		sql, args, err := r.builder().
			Update(purchaseOrderLineTable).
			Set("quantity_received", line.QuantityReceived).
			Where(squirrel.Eq{"line_id": line.LineID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build line update: %w", err)
		}
		if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update purchase order line: %w", err)
		}
	}
	return nil
}

// List returns orders matching the filter, newest first.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchaseorder.Filter) (domain.ListResult[*purchaseorder.PurchaseOrder], error) {
	result := domain.ListResult[*purchaseorder.PurchaseOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.headerSelect()
	if !id.IsNil(filter.StoreID) {
		q = q.Where(squirrel.Eq{"store_id": filter.StoreID})
	}
	if !id.IsNil(filter.SupplierID) {
		q = q.Where(squirrel.Eq{"supplier_id": filter.SupplierID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}

	total, err := r.countRows(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	q = applyPaging(q.OrderBy("date DESC"), filter.Limit, filter.Offset)

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list purchase orders: %w", err)
	}

	for _, po := range result.Items {
		if err := r.loadLines(ctx, po); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	sql, args, err := r.builder().
		Select(purchaseOrderLineCols...).
		From(purchaseOrderLineTable).
		Where(squirrel.Eq{"order_id": po.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}

	po.Items = po.Items[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &po.Items, sql, args...); err != nil {
		return fmt.Errorf("load purchase order lines: %w", err)
	}
	return nil
}
