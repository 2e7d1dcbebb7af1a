package cashregister

import (
	"context"
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/domain"
)

// Filter narrows session listings.
type Filter struct {
	StoreID id.ID
	Status  Status

	FromDate *time.Time
	ToDate   *time.Time

	Limit  int
	Offset int
}

// Repository persists cash register sessions. The repository reads the
// active transaction from context; it never opens its own.
type Repository interface {
	// Create persists a newly opened session.
	Create(ctx context.Context, s *Session) error

	// GetByID returns the session with movements loaded.
	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetOpenForUpdate returns the open session for a store with a row
	// lock, or found=false when the register is closed.
	GetOpenForUpdate(ctx context.Context, storeID id.ID) (*Session, bool, error)

	// Update persists header changes (close figures) with an optimistic
	// lock on Version.
	Update(ctx context.Context, s *Session) error

	// AppendMovement inserts one cash movement row.
	AppendMovement(ctx context.Context, sessionID id.ID, m Movement) error

	// List returns sessions matching the filter, newest first.
	List(ctx context.Context, filter Filter) (domain.ListResult[*Session], error)
}
