// Package testutil provides in-memory doubles shared by domain service
// tests: a passthrough transaction manager, a deterministic numerator
// and an in-memory stock ledger.
package testutil

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	appctx "tiendero/internal/core/context"
	"tiendero/pkg/numerator"
)

// TxManager runs the callback directly. Services under test keep their
// transactional call shape; commit/rollback semantics are covered by
// the postgres implementation.
type TxManager struct{}

// RunInTransaction implements tx.Manager.
func (TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly implements tx.ReadOnlyManager.
func (TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqRow struct {
	val int64
}

func (r *seqRow) Scan(dest ...any) error {
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

type seqQuerier struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (q *seqQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seqs == nil {
		q.seqs = make(map[string]int64)
	}
	key, _ := args[0].(string)
	q.seqs[key]++
	return &seqRow{val: q.seqs[key]}
}

// NewNumerator returns a numerator backed by in-memory sequences.
func NewNumerator() *numerator.Service {
	return numerator.New(&seqQuerier{})
}

// AdminContext returns a context carrying an admin user.
func AdminContext() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:  "test-admin",
		Email:   "admin@test.local",
		Name:    "Test Admin",
		IsAdmin: true,
	})
}

// StoreUserContext returns a context carrying a user scoped to one store.
func StoreUserContext(storeID string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:  "test-user",
		Email:   "user@test.local",
		Name:    "Test User",
		StoreID: storeID,
	})
}
