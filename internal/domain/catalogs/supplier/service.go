package supplier

import (
	"context"
	"fmt"

	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]
}

// Service provides business logic for the Supplier catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Supplier service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create registers a new supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if sup.Code == "" {
			code, err := s.numerator.Next(ctx, numerator.DefaultConfig("SUP"))
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			sup.Code = code
		}

		if err := s.repo.Create(ctx, sup); err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}

		logger.Info(ctx, "supplier created", "id", sup.ID, "name", sup.Name)
		return nil
	})
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// Update modifies a supplier.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, sup)
	})
}

// Delete soft-deletes a supplier.
func (s *Service) Delete(ctx context.Context, supplierID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, supplierID); err != nil {
			return err
		}
		return s.repo.SetDeletionMark(ctx, supplierID, true)
	})
}

// List retrieves suppliers with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}
