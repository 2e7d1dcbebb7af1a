package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	saleTable     = "doc_sales"
	saleLineTable = "doc_sale_lines"
)

var saleLineCols = []string{"line_id", "line_no", "product_id", "quantity", "unit_price", "subtotal"}

var _ sale.Repository = (*SaleRepo)(nil)

// SaleRepo is the PostgreSQL sale repository. It also answers the cash
// register's by-method revenue question.
type SaleRepo struct {
	baseDocRepo
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *SaleRepo {
	return &SaleRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  saleTable,
		headerCols: postgres.ExtractDBColumns[sale.Sale](),
	}}
}

// Create persists the sale header and its lines.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.insertHeader(ctx, s); err != nil {
		return err
	}

	q := r.builder().
		Insert(saleLineTable).
		Columns(append([]string{"sale_id"}, saleLineCols...)...)
	for _, line := range s.Items {
		q = q.Values(s.ID, line.LineID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale lines: %w", err)
	}
	return nil
}

// GetByID returns the sale with lines loaded.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	sql, args, err := r.headerSelect().
		Where(squirrel.Eq{"id": saleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	if err := r.loadLines(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update persists header changes with an optimistic lock.
func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	return r.updateHeader(ctx, s)
}

// List returns sales matching the filter, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.Filter) (domain.ListResult[*sale.Sale], error) {
	result := domain.ListResult[*sale.Sale]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.headerSelect()
	if !id.IsNil(filter.StoreID) {
		q = q.Where(squirrel.Eq{"store_id": filter.StoreID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"date": *filter.ToDate})
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
		return result, fmt.Errorf("list sales: %w", err)
	}

	for _, s := range result.Items {
		if err := r.loadLines(ctx, s); err != nil {
			return result, err
		}
	}
	return result, nil
}

// TotalsByMethod sums completed-sale final totals per payment method for
// a store within [from, to). Used when closing a cash session.
func (r *SaleRepo) TotalsByMethod(ctx context.Context, storeID id.ID, from, to time.Time) (map[sale.PaymentMethod]types.Money, error) {
	sql, args, err := r.builder().
		Select("payment_method", "COALESCE(SUM(final_total), 0) AS total").
		From(saleTable).
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Eq{"status": sale.StatusCompleted}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.Lt{"date": to}).
		GroupBy("payment_method").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		PaymentMethod sale.PaymentMethod `db:"payment_method"`
		Total         types.Money        `db:"total"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("totals by method: %w", err)
	}

	totals := make(map[sale.PaymentMethod]types.Money, len(rows))
	for _, row := range rows {
		totals[row.PaymentMethod] = row.Total
	}
	return totals, nil
}

func (r *SaleRepo) loadLines(ctx context.Context, s *sale.Sale) error {
	sql, args, err := r.builder().
		Select(saleLineCols...).
		From(saleLineTable).
		Where(squirrel.Eq{"sale_id": s.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}

	s.Items = s.Items[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &s.Items, sql, args...); err != nil {
		return fmt.Errorf("load sale lines: %w", err)
	}
	return nil
}
