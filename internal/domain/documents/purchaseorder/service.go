package purchaseorder

import (
	"context"
	"fmt"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
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

// Receipt reports goods arriving for one order line.
type Receipt struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service provides purchase order operations.
type Service struct {
	repo      Repository
	inv       *inventory.Service
	products  ProductReader
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new purchase order service.
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

// Create validates and persists a pending order. No stock moves until
// goods are received.
func (s *Service) Create(ctx context.Context, doc *PurchaseOrder) error {
	doc.ComputeTotals()

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range doc.Items {
			line := &doc.Items[i]

			p, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			// Lines costed at zero take the current catalog cost.
			if line.UnitCost.IsZero() {
				line.UnitCost = p.Cost
			}
		}
		doc.ComputeTotals()

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("PO"))
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		doc.Number = number
		doc.CreatedBy = appctx.GetUserID(ctx)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}

		logger.Info(ctx, "purchase order created",
			"order_id", doc.ID,
			"number", doc.Number,
			"store_id", doc.StoreID,
			"supplier_id", doc.SupplierID,
			"total", doc.Total,
		)
		return nil
	})
}

// Receive books arrived goods against the order. Received quantities
// accumulate across calls; each call increments the store ledger
// (creating rows for first-time products) and re-derives the order
// status. Receipt against a cancelled order is rejected.
func (s *Service) Receive(ctx context.Context, orderID id.ID, receipts []Receipt) (*PurchaseOrder, error) {
	if len(receipts) == 0 {
		return nil, apperror.NewValidation("at least one receipt line is required").
			WithDetail("field", "items")
	}

	var doc *PurchaseOrder

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		// Goods arrive at the ordering store; nobody else books them.
		if !appctx.HasStoreAccess(ctx, doc.StoreID.String()) {
			return apperror.NewForbidden("only the ordering store may receive this order").
				WithDetail("store_id", doc.StoreID.String())
		}

		if doc.Status == StatusCancelled {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Cannot receive goods against a cancelled order").
				WithDetail("order_id", doc.ID.String())
		}
		if doc.Status == StatusReceived {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Order is already fully received").
				WithDetail("order_id", doc.ID.String())
		}

		lines := make(map[id.ID]*Line, len(doc.Items))
		for i := range doc.Items {
			lines[doc.Items[i].ProductID] = &doc.Items[i]
		}

		adjustments := make([]inventory.Adjustment, 0, len(receipts))
		for _, r := range receipts {
			line, ok := lines[r.ProductID]
			if !ok {
				return apperror.NewValidation("product is not on the order").
					WithDetail("product_id", r.ProductID.String())
			}
			if !r.Quantity.IsPositive() {
				return apperror.NewValidation("received quantity must be positive").
					WithDetail("product_id", r.ProductID.String())
			}
			if line.QuantityReceived+r.Quantity > line.QuantityOrdered {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule,
					"Receipt exceeds ordered quantity").
					WithDetail("product_id", r.ProductID.String()).
					WithDetail("ordered", line.QuantityOrdered.Int64()).
					WithDetail("already_received", line.QuantityReceived.Int64()).
					WithDetail("receiving", r.Quantity.Int64())
			}

			line.QuantityReceived += r.Quantity
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.StoreID,
				ProductID:    r.ProductID,
				Delta:        r.Quantity,
				Reason:       inventory.ReasonPurchase,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}

		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		doc.DeriveStatus()
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}

		logger.Info(ctx, "purchase order receipt booked",
			"order_id", doc.ID,
			"number", doc.Number,
			"lines", len(receipts),
			"status", doc.Status,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Cancel voids an order that is not fully received. Goods already
// received stay on the ledger; the cancellation only blocks further
// receipt.
func (s *Service) Cancel(ctx context.Context, orderID id.ID, reason string) (*PurchaseOrder, error) {
	var doc *PurchaseOrder

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if err := doc.MarkCancelled(appctx.GetUserID(ctx), reason); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}

		logger.Info(ctx, "purchase order cancelled",
			"order_id", doc.ID,
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

// GetByID returns an order with its lines.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*PurchaseOrder, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*PurchaseOrder], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
