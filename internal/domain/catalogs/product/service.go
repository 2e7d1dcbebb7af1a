package product

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/pkg/logger"
)

// Service provides business logic for the Product catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create registers a new product. SKU must be unique across all
// products, deleted ones included, so a reactivated SKU never collides.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
		if err != nil {
			return fmt.Errorf("check sku: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
		return nil
	})
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// GetByBarcode retrieves a product by barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

// Update modifies a product. Price or cost changes append a history
// entry in the same transaction as the row update.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}

		if current.PriceChanged(p.Price, p.Cost) {
			entry := &PriceHistory{
				ID:        id.New(),
				ProductID: p.ID,
				OldPrice:  current.Price,
				NewPrice:  p.Price,
				OldCost:   current.Cost,
				NewCost:   p.Cost,
				ChangedBy: appctx.GetUserID(ctx),
				ChangedAt: time.Now().UTC(),
			}
			if err := s.repo.AppendPriceHistory(ctx, entry); err != nil {
				return fmt.Errorf("append price history: %w", err)
			}
		}

		// SKU is immutable once assigned
		p.SKU = current.SKU
		p.Version = current.Version

		return s.repo.Update(ctx, p)
	})
}

// SetPrice changes price/cost only.
func (s *Service) SetPrice(ctx context.Context, productID id.ID, price, cost types.Money) (*Product, error) {
	if price.IsNegative() || cost.IsNegative() {
		return nil, apperror.NewValidation("price and cost cannot be negative")
	}

	var updated *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.PriceChanged(price, cost) {
			updated = p
			return nil
		}

		entry := &PriceHistory{
			ID:        id.New(),
			ProductID: p.ID,
			OldPrice:  p.Price,
			NewPrice:  price,
			OldCost:   p.Cost,
			NewCost:   cost,
			ChangedBy: appctx.GetUserID(ctx),
			ChangedAt: time.Now().UTC(),
		}
		if err := s.repo.AppendPriceHistory(ctx, entry); err != nil {
			return fmt.Errorf("append price history: %w", err)
		}

		p.Price = price
		p.Cost = cost
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	return updated, err
}

// PriceHistory returns change entries for a product, newest first.
func (s *Service) PriceHistory(ctx context.Context, productID id.ID, limit int) ([]PriceHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.PriceHistory(ctx, productID, limit)
}

// Delete soft-deletes a product. Ledger rows referencing it survive.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, productID); err != nil {
			return err
		}
		return s.repo.SetDeletionMark(ctx, productID, true)
	})
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}
