package transfer

import (
	"context"
	"fmt"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/inventory"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// Receipt reports the quantity that actually arrived for one line.
type Receipt struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service provides transfer operations.
type Service struct {
	repo      Repository
	inv       *inventory.Service
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new transfer service.
func NewService(repo Repository, inv *inventory.Service, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		inv:       inv,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and persists a pending transfer. Availability at the
// source is checked for every line (all shortfalls reported together)
// but no stock moves until dispatch.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		reqs := make([]inventory.Requirement, 0, len(doc.Items))
		for _, line := range doc.Items {
			reqs = append(reqs, inventory.Requirement{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		if err := s.inv.EnsureAvailable(ctx, doc.StoreID, reqs); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("TR"))
		if err != nil {
			return fmt.Errorf("generate transfer number: %w", err)
		}
		doc.Number = number
		doc.CreatedBy = appctx.GetUserID(ctx)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}

		logger.Info(ctx, "transfer created",
			"transfer_id", doc.ID,
			"number", doc.Number,
			"from_store_id", doc.StoreID,
			"to_store_id", doc.ToStoreID,
		)
		return nil
	})
}

// Send dispatches a pending transfer. Stock leaves the source ledger
// now; sufficiency is re-verified under the row locks, so a concurrent
// sale since creation surfaces as insufficient stock, not negative
// balance.
func (s *Service) Send(ctx context.Context, transferID id.ID) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}

		// Only the origin store hands the goods over.
		if !appctx.HasStoreAccess(ctx, doc.StoreID.String()) {
			return apperror.NewForbidden("only the origin store may dispatch this transfer").
				WithDetail("store_id", doc.StoreID.String())
		}

		if err := doc.MarkSent(appctx.GetUserID(ctx)); err != nil {
			return err
		}

		adjustments := make([]inventory.Adjustment, 0, len(doc.Items))
		for _, line := range doc.Items {
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.StoreID,
				ProductID:    line.ProductID,
				Delta:        line.Quantity.Neg(),
				Reason:       inventory.ReasonTransferOut,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}
		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}

		logger.Info(ctx, "transfer sent",
			"transfer_id", doc.ID,
			"number", doc.Number,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Receive completes an in-transit transfer, crediting the destination
// ledger. receipts may under-report a short shipment; omitted lines
// receive their full sent quantity, and lines naming a product not on
// the transfer are rejected. Destination ledger rows are created on
// first receipt of a product.
func (s *Service) Receive(ctx context.Context, transferID id.ID, receipts []Receipt) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}

		// Only the destination store signs for the goods.
		if !appctx.HasStoreAccess(ctx, doc.ToStoreID.String()) {
			return apperror.NewForbidden("only the destination store may receive this transfer").
				WithDetail("store_id", doc.ToStoreID.String())
		}

		if doc.Status != StatusInTransit {
			return apperror.NewInvalidTransition("transfer", string(doc.Status), string(StatusReceived))
		}

		onTransfer := make(map[id.ID]bool, len(doc.Items))
		for i := range doc.Items {
			onTransfer[doc.Items[i].ProductID] = true
		}

		received := make(map[id.ID]types.Quantity, len(receipts))
		for _, r := range receipts {
			if !onTransfer[r.ProductID] {
				return apperror.NewValidation("product is not on this transfer").
					WithDetail("product_id", r.ProductID.String())
			}
			received[r.ProductID] = r.Quantity
		}

		adjustments := make([]inventory.Adjustment, 0, len(doc.Items))
		for i := range doc.Items {
			line := &doc.Items[i]

			qty, ok := received[line.ProductID]
			if !ok {
				qty = line.Quantity
			}
			if qty.IsNegative() {
				return apperror.NewValidation("received quantity cannot be negative").
					WithDetail("product_id", line.ProductID.String())
			}
			if qty > line.Quantity {
				return apperror.NewValidation("received quantity exceeds sent quantity").
					WithDetail("product_id", line.ProductID.String()).
					WithDetail("sent", line.Quantity.Int64()).
					WithDetail("received", qty.Int64())
			}
			line.ReceivedQuantity = &qty

			if qty.IsZero() {
				continue
			}
			adjustments = append(adjustments, inventory.Adjustment{
				StoreID:      doc.ToStoreID,
				ProductID:    line.ProductID,
				Delta:        qty,
				Reason:       inventory.ReasonTransferIn,
				DocumentID:   doc.ID,
				DocumentType: DocumentType,
			})
		}

		if err := doc.MarkReceived(appctx.GetUserID(ctx)); err != nil {
			return err
		}

		if err := s.inv.Apply(ctx, adjustments); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}

		logger.Info(ctx, "transfer received",
			"transfer_id", doc.ID,
			"number", doc.Number,
			"to_store_id", doc.ToStoreID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Cancel voids a transfer. A pending transfer moved no stock; an
// in-transit one has left the source, so the full sent quantities are
// returned to the source ledger. Received and cancelled transfers
// cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, transferID id.ID, reason string) (*Transfer, error) {
	var doc *Transfer

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}

		wasInTransit := doc.Status == StatusInTransit

		if err := doc.MarkCancelled(appctx.GetUserID(ctx), reason); err != nil {
			return err
		}

		if wasInTransit {
			adjustments := make([]inventory.Adjustment, 0, len(doc.Items))
			for _, line := range doc.Items {
				adjustments = append(adjustments, inventory.Adjustment{
					StoreID:      doc.StoreID,
					ProductID:    line.ProductID,
					Delta:        line.Quantity,
					Reason:       inventory.ReasonTransferCancel,
					DocumentID:   doc.ID,
					DocumentType: DocumentType,
				})
			}
			if err := s.inv.Apply(ctx, adjustments); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}

		logger.Info(ctx, "transfer cancelled",
			"transfer_id", doc.ID,
			"number", doc.Number,
			"was_in_transit", wasInTransit,
			"reason", reason,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns a transfer with its lines.
func (s *Service) GetByID(ctx context.Context, transferID id.ID) (*Transfer, error) {
	return s.repo.GetByID(ctx, transferID)
}

// List returns transfers matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Transfer], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
