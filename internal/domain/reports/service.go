package reports

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/id"
	"tiendero/pkg/logger"
)

// Service computes reports with read-through caching.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
}

// NewService creates a new report service. cache may be nil, in which
// case every call hits the database.
func NewService(repo Repository, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl}
}

// SalesSummary aggregates completed sales for a store over [from, to).
func (s *Service) SalesSummary(ctx context.Context, storeID id.ID, from, to time.Time) (*SalesSummary, error) {
	key := fmt.Sprintf("reports:%s:sales:%d:%d", storeID, from.Unix(), to.Unix())

	var cached SalesSummary
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	summary, err := s.repo.SalesSummary(ctx, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	s.cacheSet(ctx, key, summary)
	return summary, nil
}

// InventoryValuation values a store's current stock.
func (s *Service) InventoryValuation(ctx context.Context, storeID id.ID) (*InventoryValuation, error) {
	key := fmt.Sprintf("reports:%s:valuation", storeID)

	var cached InventoryValuation
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	valuation, err := s.repo.InventoryValuation(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}

	s.cacheSet(ctx, key, valuation)
	return valuation, nil
}

// CreditsOutstanding summarizes open customer credit for a store.
func (s *Service) CreditsOutstanding(ctx context.Context, storeID id.ID) (*CreditsOutstanding, error) {
	key := fmt.Sprintf("reports:%s:credits", storeID)

	var cached CreditsOutstanding
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	outstanding, err := s.repo.CreditsOutstanding(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("credits outstanding: %w", err)
	}

	s.cacheSet(ctx, key, outstanding)
	return outstanding, nil
}

// StoreDashboard composes the store's headline numbers: today's sales,
// the trailing thirty days, the stock counters and open credit.
func (s *Service) StoreDashboard(ctx context.Context, storeID id.ID) (*StoreDashboard, error) {
	key := fmt.Sprintf("reports:%s:dashboard", storeID)

	var cached StoreDashboard
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sales, err := s.repo.SalesSummary(ctx, storeID, now.AddDate(0, 0, -30), now)
	if err != nil {
		return nil, fmt.Errorf("dashboard sales: %w", err)
	}
	today, err := s.repo.SalesSummary(ctx, storeID, dayStart, now)
	if err != nil {
		return nil, fmt.Errorf("dashboard today: %w", err)
	}
	counts, err := s.repo.InventoryCounts(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("dashboard inventory: %w", err)
	}
	credits, err := s.repo.CreditsOutstanding(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("dashboard credits: %w", err)
	}

	dashboard := &StoreDashboard{
		StoreID: storeID,
		AsOf:    now,
		Today: DayTotal{
			Day:     dayStart,
			Count:   today.SaleCount,
			Revenue: today.Revenue,
		},
		Sales:     sales,
		Inventory: *counts,
		Credits:   credits,
	}

	s.cacheSet(ctx, key, dashboard)
	return dashboard, nil
}

// InvalidateStore drops every cached report for a store. Called after
// any write that touches the store's sales, stock or credits.
func (s *Service) InvalidateStore(ctx context.Context, storeID id.ID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("reports:%s:*", storeID)); err != nil {
		logger.Warn(ctx, "report cache invalidation failed",
			"store_id", storeID,
			"error", err,
		)
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn(ctx, "report cache read failed", "key", key, "error", err)
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.Warn(ctx, "report cache write failed", "key", key, "error", err)
	}
}
