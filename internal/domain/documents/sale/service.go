package sale

import (
	"context"
	"fmt"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/domain"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/inventory"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// ProductReader resolves catalog products for line validation.
// Satisfied by product.Service.
type ProductReader interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// Service provides sale operations.
type Service struct {
	repo      Repository
	inv       *inventory.Service
	products  ProductReader
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	inv *inventory.Service,
	products ProductReader,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		inv:       inv,
		products:  products,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and persists a sale, decrementing stock for every
// line in the same transaction. All lines are checked for sufficiency
// before any ledger row is mutated; a single shortfall rejects the whole
// sale and no stock changes.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
	doc.ComputeTotals()

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reqs := make([]inventory.Requirement, 0, len(doc.Items))
		for i := range doc.Items {
			line := &doc.Items[i]

			p, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return apperror.NewValidation("product is not active").
					WithDetail("product_id", p.ID.String()).
					WithDetail("lineNo", line.LineNo)
			}
			// Lines priced at zero take the current catalog price.
			if line.UnitPrice.IsZero() {
				line.UnitPrice = p.Price
			}

			reqs = append(reqs, inventory.Requirement{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		doc.ComputeTotals()

		if err := s.inv.EnsureAvailable(ctx, doc.StoreID, reqs); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("SALE"))
		if err != nil {
			return fmt.Errorf("generate sale number: %w", err)
		}
		doc.Number = number
		doc.CreatedBy = appctx.GetUserID(ctx)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		adjustments := make([]inventory.Adjustment, 0, len(doc.Items))
		for _, line := range doc.Items {
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.StoreID,
				ProductID:    line.ProductID,
				Delta:        line.Quantity.Neg(),
				Reason:       inventory.ReasonSale,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}
		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		logger.Info(ctx, "sale created",
			"sale_id", doc.ID,
			"number", doc.Number,
			"store_id", doc.StoreID,
			"final_total", doc.FinalTotal,
		)
		return nil
	})
}

// Cancel reverses a completed sale: every sold quantity is returned to
// the originating store's ledger and the sale is marked cancelled with
// actor, reason and timestamp. Only completed sales can be cancelled.
func (s *Service) Cancel(ctx context.Context, saleID id.ID, reason string) (*Sale, error) {
	var doc *Sale

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}

		if err := doc.MarkCancelled(appctx.GetUserID(ctx), reason); err != nil {
			return err
		}

		adjustments := make([]inventory.Adjustment, 0, len(doc.Items))
		for _, line := range doc.Items {
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.StoreID,
				ProductID:    line.ProductID,
				Delta:        line.Quantity,
				Reason:       inventory.ReasonSaleCancel,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}
		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		logger.Info(ctx, "sale cancelled",
			"sale_id", doc.ID,
			"number", doc.Number,
			"reason", reason,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns a sale with its lines.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List returns sales matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Sale], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
