package reports

import (
	"context"
	"time"

	"tiendero/internal/core/id"
)

// Repository runs the reporting aggregations.
type Repository interface {
	SalesSummary(ctx context.Context, storeID id.ID, from, to time.Time) (*SalesSummary, error)
	InventoryValuation(ctx context.Context, storeID id.ID) (*InventoryValuation, error)
	InventoryCounts(ctx context.Context, storeID id.ID) (*InventoryCounts, error)
	CreditsOutstanding(ctx context.Context, storeID id.ID) (*CreditsOutstanding, error)
}

// Cache is the injectable cache port for report payloads. Get reports a
// miss with found=false; Set failures are surfaced but callers may treat
// the cache as best-effort.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}
