package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// NumeratorQuerier adapts the TxManager for the numerator package.
// Document numbers are taken inside the workflow transaction when one
// is active, so a rolled-back document never burns a number.
type NumeratorQuerier struct {
	txManager *TxManager
}

// NewNumeratorQuerier creates a querier backed by the transaction
// manager.
func NewNumeratorQuerier(txManager *TxManager) *NumeratorQuerier {
	return &NumeratorQuerier{txManager: txManager}
}

// QueryRow runs the query on the context transaction or the pool.
func (q *NumeratorQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
