package returns

import (
	"context"
	"fmt"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/inventory"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// SaleReader resolves the original sale a return is raised against.
// Satisfied by sale.Service.
type SaleReader interface {
	GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error)
}

// Service provides return operations.
type Service struct {
	repo      Repository
	sales     SaleReader
	inv       *inventory.Service
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new return service.
func NewService(
	repo Repository,
	sales SaleReader,
	inv *inventory.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		sales:     sales,
		inv:       inv,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and persists a pending return. Every returned line
// must match a sold line, and the quantity together with earlier
// non-rejected returns must not exceed what was sold. Prices come from
// the original sale, not the current catalog; PriceDifference is fixed
// here. No stock moves until completion.
func (s *Service) Create(ctx context.Context, doc *Return) error {
	if id.IsNil(doc.SaleID) {
		return apperror.NewValidation("sale is required").
			WithDetail("field", "saleId")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.sales.GetByID(ctx, doc.SaleID)
		if err != nil {
			return err
		}
		if original.Status != sale.StatusCompleted {
			return apperror.NewBusinessRule(apperror.CodeSaleNotCompleted,
				"Returns are only accepted against completed sales").
				WithDetail("sale_id", original.ID.String()).
				WithDetail("status", string(original.Status))
		}
		// The store is the sale's store; callers never pick it.
		doc.StoreID = original.StoreID
		if !appctx.HasStoreAccess(ctx, doc.StoreID.String()) {
			return apperror.NewForbidden("no access to the sale's store").
				WithDetail("store_id", doc.StoreID.String())
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		sold := make(map[id.ID]int64, len(original.Items))
		for _, line := range original.Items {
			sold[line.ProductID] += line.Quantity.Int64()
		}
		prices := make(map[id.ID]int, len(original.Items))
		for i, line := range original.Items {
			prices[line.ProductID] = i
		}

		returned, err := s.repo.SumReturnedBySale(ctx, doc.SaleID)
		if err != nil {
			return fmt.Errorf("sum prior returns: %w", err)
		}

		for i := range doc.Items {
			line := &doc.Items[i]

			soldQty, ok := sold[line.ProductID]
			if !ok {
				return apperror.NewValidation("product was not on the sale").
					WithDetail("product_id", line.ProductID.String()).
					WithDetail("lineNo", line.LineNo)
			}
			if line.Quantity.Int64()+returned[line.ProductID] > soldQty {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule,
					"Return exceeds sold quantity").
					WithDetail("product_id", line.ProductID.String()).
					WithDetail("sold", soldQty).
					WithDetail("already_returned", returned[line.ProductID]).
					WithDetail("returning", line.Quantity.Int64())
			}
			line.UnitPrice = original.Items[prices[line.ProductID]].UnitPrice
		}
		doc.ComputeTotals()

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("RET"))
		if err != nil {
			return fmt.Errorf("generate return number: %w", err)
		}
		doc.Number = number
		doc.CreatedBy = appctx.GetUserID(ctx)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create return: %w", err)
		}

		logger.Info(ctx, "return created",
			"return_id", doc.ID,
			"number", doc.Number,
			"sale_id", doc.SaleID,
			"kind", doc.Kind,
			"total_refund", doc.TotalRefund,
		)
		return nil
	})
}

// Approve records the human checkpoint. Status and metadata only; no
// stock effect.
func (s *Service) Approve(ctx context.Context, returnID id.ID) (*Return, error) {
	var doc *Return

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := doc.MarkApproved(appctx.GetUserID(ctx)); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		logger.Info(ctx, "return approved",
			"return_id", doc.ID,
			"number", doc.Number,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Reject declines a pending return.
func (s *Service) Reject(ctx context.Context, returnID id.ID, reason string) (*Return, error) {
	var doc *Return

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if err := doc.MarkRejected(appctx.GetUserID(ctx), reason); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update return: %w", err)
		}
		logger.Info(ctx, "return rejected",
			"return_id", doc.ID,
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

// Complete executes an approved return: every returned item goes back
// onto the sale's store ledger, and for exchanges every replacement
// item is decremented, with the returned units counting toward the
// replacements. The whole completion is one transaction, so a
// replacement shortfall also rolls back the restock.
func (s *Service) Complete(ctx context.Context, returnID id.ID) (*Return, error) {
	var doc *Return

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, returnID)
		if err != nil {
			return err
		}

		if err := doc.MarkCompleted(); err != nil {
			return err
		}

		adjustments := make([]inventory.Adjustment, 0, len(doc.Items)+len(doc.ExchangeItems))
		for _, line := range doc.Items {
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.StoreID,
				ProductID:    line.ProductID,
				Delta:        line.Quantity,
				Reason:       inventory.ReasonReturn,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}

		if doc.Kind == KindExchange {
			// The returned units go back on the shelf before the
			// replacements leave it, so sufficiency is judged on the net
			// movement per product. Swapping a unit for the same product
			// works even with an empty shelf.
			returnedQty := make(map[id.ID]types.Quantity, len(doc.Items))
			for _, line := range doc.Items {
				returnedQty[line.ProductID] += line.Quantity
			}
			need := make(map[id.ID]types.Quantity, len(doc.ExchangeItems))
			order := make([]id.ID, 0, len(doc.ExchangeItems))
			for _, line := range doc.ExchangeItems {
				if _, ok := need[line.ProductID]; !ok {
					order = append(order, line.ProductID)
				}
				need[line.ProductID] += line.Quantity
			}

			reqs := make([]inventory.Requirement, 0, len(order))
			for _, productID := range order {
				if short := need[productID] - returnedQty[productID]; short > 0 {
					reqs = append(reqs, inventory.Requirement{
						ProductID: productID,
						Quantity:  short,
					})
				}
			}
			if len(reqs) > 0 {
				if err := s.inv.EnsureAvailable(ctx, doc.StoreID, reqs); err != nil {
					return err
				}
			}
			for _, line := range doc.ExchangeItems {
				adjustments = append(adjustments, inventory.Adjustment{
					StoreID:      doc.StoreID,
					ProductID:    line.ProductID,
					Delta:        line.Quantity.Neg(),
					Reason:       inventory.ReasonExchange,
					DocumentID:   doc.ID,
					DocumentType: DocumentType,
				})
			}
		}

		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update return: %w", err)
		}

		logger.Info(ctx, "return completed",
			"return_id", doc.ID,
			"number", doc.Number,
			"kind", doc.Kind,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns a document with all lines.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.repo.GetByID(ctx, returnID)
}

// List returns documents matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Return], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
