// Package document_repo provides PostgreSQL implementations for document
// repositories: sales, credits, transfers, purchase orders, returns and
// cash register sessions. Documents persist as a header row plus child
// line rows; repositories read the active transaction from context and
// never open their own.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/infrastructure/storage/postgres"
)

// baseDocRepo carries what every document repository needs: the tx
// manager for querier resolution, the header table metadata and the
// audit trail.
type baseDocRepo struct {
	txManager  *postgres.TxManager
	audit      *postgres.AuditService
	tableName  string
	headerCols []string
}

func (r *baseDocRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *baseDocRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insertHeader inserts the document header using its "db" tags.
func (r *baseDocRepo) insertHeader(ctx context.Context, doc any) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
	}

	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Insert(r.tableName).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return r.logAudit(ctx, postgres.AuditActionCreate, filtered)
}

// updateHeader writes the header with an optimistic lock on version.
func (r *baseDocRepo) updateHeader(ctx context.Context, doc any) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
	}

	docID, ok := data["id"]
	if !ok {
		return fmt.Errorf("document has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("document has no 'version' field or it is not an int")
	}

	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, docID)
	}

	filtered["id"] = docID
	return r.logAudit(ctx, postgres.AuditActionUpdate, filtered)
}

// logAudit records the written header columns on the audit trail,
// inside the same transaction as the write.
func (r *baseDocRepo) logAudit(ctx context.Context, action postgres.AuditAction, cols map[string]any) error {
	if r.audit == nil {
		return nil
	}
	docID, ok := cols["id"].(id.ID)
	if !ok {
		return nil
	}
	if err := r.audit.LogChange(ctx, r.tableName, docID, action, cols); err != nil {
		return fmt.Errorf("audit %s: %w", r.tableName, err)
	}
	return nil
}

func (r *baseDocRepo) headerSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.headerCols...).
		From(r.tableName)
}

// applyPaging applies limit/offset to a select.
func applyPaging(q squirrel.SelectBuilder, limit, offset int) squirrel.SelectBuilder {
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}

// countRows counts the rows a select would return before paging.
func (r *baseDocRepo) countRows(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	countSQL, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return total, nil
}
