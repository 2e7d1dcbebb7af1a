package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/transfer"
	"tiendero/internal/infrastructure/storage/postgres"
)

const (
	transferTable     = "doc_transfers"
	transferLineTable = "doc_transfer_lines"
)

var transferLineCols = []string{"line_id", "line_no", "product_id", "quantity", "received_quantity"}

var _ transfer.Repository = (*TransferRepo)(nil)

// TransferRepo is the PostgreSQL transfer repository.
type TransferRepo struct {
	baseDocRepo
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *TransferRepo {
	return &TransferRepo{baseDocRepo{
		txManager:  txManager,
		audit:      audit,
		tableName:  transferTable,
		headerCols: postgres.ExtractDBColumns[transfer.Transfer](),
	}}
}

// Create persists the transfer header and its lines.
func (r *TransferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	if err := r.insertHeader(ctx, t); err != nil {
		return err
	}

	q := r.builder().
		Insert(transferLineTable).
		Columns(append([]string{"transfer_id"}, transferLineCols...)...)
	for _, line := range t.Items {
		q = q.Values(t.ID, line.LineID, line.LineNo, line.ProductID, line.Quantity, line.ReceivedQuantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transfer lines: %w", err)
	}
	return nil
}

// GetByID returns the transfer with lines loaded.
func (r *TransferRepo) GetByID(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.get(ctx, transferID, false)
}

// GetForUpdate locks the header row, serializing state transitions.
func (r *TransferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.get(ctx, transferID, true)
}

func (r *TransferRepo) get(ctx context.Context, transferID id.ID, forUpdate bool) (*transfer.Transfer, error) {
	q := r.headerSelect().Where(squirrel.Eq{"id": transferID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t transfer.Transfer
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transfer", transferID.String())
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	if err := r.loadLines(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update persists the header and any received quantities set on lines.
func (r *TransferRepo) Update(ctx context.Context, t *transfer.Transfer) error {
	if err := r.updateHeader(ctx, t); err != nil {
		return err
	}

	for _, line := range t.Items {
		if line.ReceivedQuantity == nil {
			continue
		}
		sql, args, err := r.builder().
			Update(transferLineTable).
			Set("received_quantity", *line.ReceivedQuantity).
			Where(squirrel.Eq{"line_id": line.LineID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build line update: %w", err)
		}
		if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("update transfer line: %w", err)
		}
	}
	return nil
}

// List returns transfers matching the filter, newest first. StoreID
// matches either the source or the destination.
func (r *TransferRepo) List(ctx context.Context, filter transfer.Filter) (domain.ListResult[*transfer.Transfer], error) {
	result := domain.ListResult[*transfer.Transfer]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.headerSelect()
	if !id.IsNil(filter.StoreID) {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"store_id": filter.StoreID},
			squirrel.Eq{"to_store_id": filter.StoreID},
		})
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
		return result, fmt.Errorf("list transfers: %w", err)
	}

	for _, t := range result.Items {
		if err := r.loadLines(ctx, t); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *TransferRepo) loadLines(ctx context.Context, t *transfer.Transfer) error {
	sql, args, err := r.builder().
		Select(transferLineCols...).
		From(transferLineTable).
		Where(squirrel.Eq{"transfer_id": t.ID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build line query: %w", err)
	}

	t.Items = t.Items[:0]
	if err := pgxscan.Select(ctx, r.querier(ctx), &t.Items, sql, args...); err != nil {
		return fmt.Errorf("load transfer lines: %w", err)
	}
	return nil
}
