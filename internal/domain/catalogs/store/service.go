package store

import (
	"context"
	"fmt"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// Service provides business logic for the Store catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Store service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create registers a new store. Store names are unique.
func (s *Service) Create(ctx context.Context, st *Store) error {
	if err := st.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByName(ctx, st.Name)
		if err != nil {
			return fmt.Errorf("check name: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("store", "name", st.Name)
		}

		if st.Code == "" {
			code, err := s.numerator.Next(ctx, numerator.DefaultConfig("ST"))
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			st.Code = code
		}

		if err := s.repo.Create(ctx, st); err != nil {
			return fmt.Errorf("create store: %w", err)
		}

		logger.Info(ctx, "store created", "id", st.ID, "name", st.Name)
		return nil
	})
}

// GetByID retrieves a store.
func (s *Service) GetByID(ctx context.Context, storeID id.ID) (*Store, error) {
	return s.repo.GetByID(ctx, storeID)
}

// Update modifies a store. Identity fields (code) stay immutable.
func (s *Service) Update(ctx context.Context, st *Store) error {
	if err := st.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, st)
	})
}

// Delete soft-deletes a store. Referencing documents keep their rows.
func (s *Service) Delete(ctx context.Context, storeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, storeID); err != nil {
			return err
		}
		return s.repo.SetDeletionMark(ctx, storeID, true)
	})
}

// List retrieves stores with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Store], error) {
	return s.repo.List(ctx, filter)
}
