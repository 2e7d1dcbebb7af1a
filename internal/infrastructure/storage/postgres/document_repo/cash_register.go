package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/cashregister"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	cashSessionTable  = "doc_cash_sessions"
	cashMovementTable = "doc_cash_movements"
)

var cashMovementCols = []string{"line_id", "type", "amount", "description", "created_by", "created_at"}

var _ cashregister.Repository = (*CashRegisterRepo)(nil)

// CashRegisterRepo is the PostgreSQL cash register session repository.
// The one-open-session-per-store rule is backed by a partial unique
// index on (store_id) WHERE status = 'open'.
type CashRegisterRepo struct {
	baseDocRepo
}

// NewCashRegisterRepo creates a new cash register repository.
func NewCashRegisterRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *CashRegisterRepo {
	return &CashRegisterRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  cashSessionTable,
		headerCols: postgres.ExtractDBColumns[cashregister.Session](),
	}}
}

// Create persists a newly opened session.
func (r *CashRegisterRepo) Create(ctx context.Context, s *cashregister.Session) error {
	return r.insertHeader(ctx, s)
}

// GetByID returns the session with movements loaded.
func (r *CashRegisterRepo) GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error) {
	sql, args, err := r.headerSelect().
		Where(squirrel.Eq{"id": sessionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s cashregister.Session
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash session", sessionID.String())
		}
		return nil, fmt.Errorf("get cash session: %w", err)
	}

	if err := r.loadMovements(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOpenForUpdate returns the open session for a store with a row lock,
// or found=false when the register is closed.
func (r *CashRegisterRepo) GetOpenForUpdate(ctx context.Context, storeID id.ID) (*cashregister.Session, bool, error) {
	sql, args, err := r.headerSelect().
		Where(squirrel.Eq{"store_id": storeID}).
		Where(squirrel.Eq{"status": cashregister.StatusOpen}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build query: %w", err)
	}

	var s cashregister.Session
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get open session: %w", err)
	}

	if err := r.loadMovements(ctx, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// Update persists header changes with an optimistic lock.
func (r *CashRegisterRepo) Update(ctx context.Context, s *cashregister.Session) error {
	return r.updateHeader(ctx, s)
}

// AppendMovement inserts one cash movement row.
func (r *CashRegisterRepo) AppendMovement(ctx context.Context, sessionID id.ID, m cashregister.Movement) error {
	sql, args, err := r.builder().
		Insert(cashMovementTable).
		Columns(append([]string{"session_id"}, cashMovementCols...)...).
		Values(sessionID, m.LineID, m.Type, m.Amount, m.Description, m.CreatedBy, m.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build movement insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash movement: %w", err)
	}
	return nil
}

// List returns sessions matching the filter, newest first.
func (r *CashRegisterRepo) List(ctx context.Context, filter cashregister.Filter) (domain.ListResult[*cashregister.Session], error) {
	result := domain.ListResult[*cashregister.Session]{
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
		q = q.Where(squirrel.GtOrEq{"opened_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"opened_at": *filter.ToDate})
	}

	total, err := r.countRows(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	q = applyPaging(q.OrderBy("opened_at DESC"), filter.Limit, filter.Offset)

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list cash sessions: %w", err)
	}

	for _, s := range result.Items {
		if err := r.loadMovements(ctx, s); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *CashRegisterRepo) loadMovements(ctx context.Context, s *cashregister.Session) error {
	sql, args, err := r.builder().
		Select(cashMovementCols...).
		From(cashMovementTable).
		Where(squirrel.Eq{"session_id": s.ID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build movement query: %w", err)
	}

	s.Movements = s.Movements[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &s.Movements, sql, args...); err != nil {
		return fmt.Errorf("load cash movements: %w", err)
	}
	return nil
}
