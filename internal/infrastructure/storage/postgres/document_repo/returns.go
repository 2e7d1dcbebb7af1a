package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/returns"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	returnTable             = "doc_returns"
	returnLineTable         = "doc_return_lines"
	returnExchangeLineTable = "doc_return_exchange_lines"
)

var (
	returnLineCols         = []string{"line_id", "line_no", "product_id", "quantity", "unit_price", "reason"}
	returnExchangeLineCols = []string{"line_id", "line_no", "product_id", "quantity", "unit_price"}
)

var _ returns.Repository = (*ReturnRepo)(nil)

// ReturnRepo is the PostgreSQL return repository.
type ReturnRepo struct {
	baseDocRepo
}

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *ReturnRepo {
	return &ReturnRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  returnTable,
		headerCols: postgres.ExtractDBColumns[returns.Return](),
	}}
}

// Create persists the return header, its lines and exchange lines.
func (r *ReturnRepo) Create(ctx context.Context, ret *returns.Return) error {
	if err := r.insertHeader(ctx, ret); err != nil {
		return err
	}

	q := r.builder().
		Insert(returnLineTable).
		Columns(append([]string{"return_id"}, returnLineCols...)...)
	for _, line := range ret.Items {
		q = q.Values(ret.ID, line.LineID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice, line.Reason)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return lines: %w", err)
	}

	if len(ret.ExchangeItems) == 0 {
		return nil
	}

	q = r.builder().
		Insert(returnExchangeLineTable).
		Columns(append([]string{"return_id"}, returnExchangeLineCols...)...)
	for _, line := range ret.ExchangeItems {
		q = q.Values(ret.ID, line.LineID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice)
	}

	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build exchange line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert exchange lines: %w", err)
	}
	return nil
}

// GetByID returns the document with all lines loaded.
func (r *ReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	return r.get(ctx, returnID, false)
}

// GetForUpdate locks the header row, serializing state transitions.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	return r.get(ctx, returnID, true)
}

func (r *ReturnRepo) get(ctx context.Context, returnID id.ID, forUpdate bool) (*returns.Return, error) {
	q := r.headerSelect().Where(squirrel.Eq{"id": returnID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ret returns.Return
	if err := pgxscan.Get(ctx, r.querier(ctx), &ret, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return", returnID.String())
		}
		return nil, fmt.Errorf("get return: %w", err)
	}

	if err := r.loadLines(ctx, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Update persists header changes with an optimistic lock.
func (r *ReturnRepo) Update(ctx context.Context, ret *returns.Return) error {
	return r.updateHeader(ctx, ret)
}

// SumReturnedBySale sums returned quantities per product for a sale,
// excluding rejected returns.
func (r *ReturnRepo) SumReturnedBySale(ctx context.Context, saleID id.ID) (map[id.ID]int64, error) {
	sql, args, err := r.builder().
		Select("l.product_id", "COALESCE(SUM(l.quantity), 0) AS total").
		From(returnLineTable + " l").
		Join(returnTable + " h ON h.id = l.return_id").
		Where(squirrel.Eq{"h.sale_id": saleID}).
		Where(squirrel.NotEq{"h.status": returns.StatusRejected}).
		GroupBy("l.product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		ProductID id.ID `db:"product_id"`
		Total     int64 `db:"total"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum returned by sale: %w", err)
	}

	totals := make(map[id.ID]int64, len(rows))
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}

// List returns documents matching the filter, newest first.
func (r *ReturnRepo) List(ctx context.Context, filter returns.Filter) (domain.ListResult[*returns.Return], error) {
	result := domain.ListResult[*returns.Return]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.headerSelect()
	if !id.IsNil(filter.StoreID) {
		q = q.Where(squirrel.Eq{"store_id": filter.StoreID})
	}
	if !id.IsNil(filter.SaleID) {
		q = q.Where(squirrel.Eq{"sale_id": filter.SaleID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
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
		return result, fmt.Errorf("list returns: %w", err)
	}

	for _, ret := range result.Items {
		if err := r.loadLines(ctx, ret); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *ReturnRepo) loadLines(ctx context.Context, ret *returns.Return) error {
	sql, args, err := r.builder().
		Select(returnLineCols...).
		From(returnLineTable).
		Where(squirrel.Eq{"return_id": ret.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}
	ret.Items = ret.Items[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &ret.Items, sql, args...); err != nil {
		return fmt.Errorf("load return lines: %w", err)
	}

	sql, args, err = r.builder().
		Select(returnExchangeLineCols...).
		From(returnExchangeLineTable).
		Where(squirrel.Eq{"return_id": ret.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build exchange line query: %w", err)
	}
	ret.ExchangeItems = ret.ExchangeItems[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &ret.ExchangeItems, sql, args...); err != nil {
		return fmt.Errorf("load exchange lines: %w", err)
	}
	return nil
}
