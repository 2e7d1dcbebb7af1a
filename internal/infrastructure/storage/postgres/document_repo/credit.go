package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/credit"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	creditTable        = "doc_credits"
	creditLineTable    = "doc_credit_lines"
	creditPaymentTable = "doc_credit_payments"
)

var (
	creditLineCols    = []string{"line_id", "line_no", "product_id", "quantity", "unit_price", "subtotal"}
	creditPaymentCols = []string{"line_id", "amount", "method", "paid_at", "received_by", "notes"}
)

var _ credit.Repository = (*CreditRepo)(nil)

// CreditRepo is the PostgreSQL credit repository.
type CreditRepo struct {
	baseDocRepo
}

// NewCreditRepo creates a new credit repository.
func NewCreditRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *CreditRepo {
	return &CreditRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  creditTable,
		headerCols: postgres.ExtractDBColumns[credit.Credit](),
	}}
}

// Create persists the credit header and its lines. Payments recorded at
// creation go through AppendPayment.
func (r *CreditRepo) Create(ctx context.Context, c *credit.Credit) error {
	if err := r.insertHeader(ctx, c); err != nil {
		return err
	}

	q := r.builder().
		Insert(creditLineTable).
		Columns(append([]string{"credit_id"}, creditLineCols...)...)
	for _, line := range c.Items {
		q = q.Values(c.ID, line.LineID, line.LineNo, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert credit lines: %w", err)
	}
	return nil
}

// GetByID returns the credit with lines and payments loaded.
func (r *CreditRepo) GetByID(ctx context.Context, creditID id.ID) (*credit.Credit, error) {
	return r.get(ctx, creditID, false)
}

// GetForUpdate locks the header row, serializing concurrent payments.
func (r *CreditRepo) GetForUpdate(ctx context.Context, creditID id.ID) (*credit.Credit, error) {
	return r.get(ctx, creditID, true)
}

func (r *CreditRepo) get(ctx context.Context, creditID id.ID, forUpdate bool) (*credit.Credit, error) {
	q := r.headerSelect().Where(squirrel.Eq{"id": creditID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c credit.Credit
	if err := pgxscan.Get(ctx, r.querier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("credit", creditID.String())
		}
		return nil, fmt.Errorf("get credit: %w", err)
	}

	if err := r.loadChildren(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update persists header changes with an optimistic lock.
func (r *CreditRepo) Update(ctx context.Context, c *credit.Credit) error {
	return r.updateHeader(ctx, c)
}

// AppendPayment inserts one payment row.
func (r *CreditRepo) AppendPayment(ctx context.Context, creditID id.ID, p credit.Payment) error {
	sql, args, err := r.builder().
		Insert(creditPaymentTable).
		Columns(append([]string{"credit_id"}, creditPaymentCols...)...).
		Values(creditID, p.LineID, p.Amount, p.Method, p.PaidAt, p.ReceivedBy, p.Notes).
		ToSql()
	if err != nil {
		return fmt.Errorf("build payment insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert credit payment: %w", err)
	}
	return nil
}

// List returns credits matching the filter, newest first.
func (r *CreditRepo) List(ctx context.Context, filter credit.Filter) (domain.ListResult[*credit.Credit], error) {
	result := domain.ListResult[*credit.Credit]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.headerSelect()
	if !id.IsNil(filter.StoreID) {
		q = q.Where(squirrel.Eq{"store_id": filter.StoreID})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.CustomerSearch != "" {
		q = q.Where(squirrel.ILike{"customer_name": "%" + filter.CustomerSearch + "%"})
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
		return result, fmt.Errorf("list credits: %w", err)
	}

	for _, c := range result.Items {
		if err := r.loadChildren(ctx, c); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *CreditRepo) loadChildren(ctx context.Context, c *credit.Credit) error {
	sql, args, err := r.builder().
		Select(creditLineCols...).
		From(creditLineTable).
		Where(squirrel.Eq{"credit_id": c.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}
	c.Items = c.Items[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &c.Items, sql, args...); err != nil {
		return fmt.Errorf("load credit lines: %w", err)
	}

	sql, args, err = r.builder().
		Select(creditPaymentCols...).
		From(creditPaymentTable).
		Where(squirrel.Eq{"credit_id": c.ID}).
		OrderBy("paid_at ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build payment query: %w", err)
	}
	c.Payments = c.Payments[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &c.Payments, sql, args...); err != nil {
		return fmt.Errorf("load credit payments: %w", err)
	}
	return nil
}
