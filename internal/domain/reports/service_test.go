package reports_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain/reports"
)

type reportRepo struct {
	monthCount int64
	todayCount int64
	counts     reports.InventoryCounts
	owed       types.Money

	salesCalls int
}

func (r *reportRepo) SalesSummary(ctx context.Context, storeID id.ID, from, to time.Time) (*reports.SalesSummary, error) {
	r.salesCalls++
	summary := &reports.SalesSummary{
		StoreID:  storeID,
		From:     from,
		To:       to,
		Revenue:  types.ZeroMoney(),
		Tax:      types.ZeroMoney(),
		Discount: types.ZeroMoney(),
	}
	if to.Sub(from) <= 24*time.Hour {
		summary.SaleCount = r.todayCount
		summary.Revenue = types.MustMoney("180.00")
	} else {
		summary.SaleCount = r.monthCount
		summary.Revenue = types.MustMoney("5400.00")
	}
	summary.AverageTicket = types.ZeroMoney()
	return summary, nil
}

func (r *reportRepo) InventoryValuation(ctx context.Context, storeID id.ID) (*reports.InventoryValuation, error) {
	return &reports.InventoryValuation{StoreID: storeID}, nil
}

func (r *reportRepo) InventoryCounts(ctx context.Context, storeID id.ID) (*reports.InventoryCounts, error) {
	counts := r.counts
	return &counts, nil
}

func (r *reportRepo) CreditsOutstanding(ctx context.Context, storeID id.ID) (*reports.CreditsOutstanding, error) {
	return &reports.CreditsOutstanding{
		StoreID:      storeID,
		TotalOwed:    r.owed,
		FiadoOwed:    r.owed,
		ApartadoOwed: types.ZeroMoney(),
		OpenCount:    2,
	}, nil
}

type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *mapCache) Invalidate(ctx context.Context, pattern string) error {
	c.entries = make(map[string][]byte)
	return nil
}

func TestStoreDashboard_ComposesHeadlineNumbers(t *testing.T) {
	repo := &reportRepo{
		monthCount: 120,
		todayCount: 6,
		counts:     reports.InventoryCounts{ProductCount: 40, TotalUnits: 950, LowStockCount: 3},
		owed:       types.MustMoney("820.00"),
	}
	svc := reports.NewService(repo, nil, 0)

	dashboard, err := svc.StoreDashboard(context.Background(), id.New())
	require.NoError(t, err)

	assert.EqualValues(t, 6, dashboard.Today.Count)
	assert.True(t, dashboard.Today.Revenue.Equal(types.MustMoney("180.00")))
	assert.EqualValues(t, 120, dashboard.Sales.SaleCount)
	assert.EqualValues(t, 3, dashboard.Inventory.LowStockCount)
	assert.EqualValues(t, 950, dashboard.Inventory.TotalUnits)
	require.NotNil(t, dashboard.Credits)
	assert.True(t, dashboard.Credits.TotalOwed.Equal(types.MustMoney("820.00")))
}

func TestStoreDashboard_SecondCallServedFromCache(t *testing.T) {
	repo := &reportRepo{todayCount: 6, monthCount: 120}
	svc := reports.NewService(repo, newMapCache(), time.Minute)
	storeID := id.New()

	first, err := svc.StoreDashboard(context.Background(), storeID)
	require.NoError(t, err)
	callsAfterFirst := repo.salesCalls

	second, err := svc.StoreDashboard(context.Background(), storeID)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, repo.salesCalls, "cached read must not hit the repository")
	assert.EqualValues(t, first.Sales.SaleCount, second.Sales.SaleCount)
}

func TestInvalidateStore_DropsDashboard(t *testing.T) {
	repo := &reportRepo{todayCount: 6, monthCount: 120}
	cache := newMapCache()
	svc := reports.NewService(repo, cache, time.Minute)
	storeID := id.New()

	_, err := svc.StoreDashboard(context.Background(), storeID)
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	svc.InvalidateStore(context.Background(), storeID)

	assert.Empty(t, cache.entries)
}
