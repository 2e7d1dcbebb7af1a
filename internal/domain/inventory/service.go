package inventory

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/pkg/logger"
)

// Service provides business operations for the stock ledger.
//
// The service holds no transaction boundary opinion: every mutating
// method must be called inside the owning workflow's transaction, so a
// ledger write and its owning document commit or roll back together.
type Service struct {
	repo Repository
}

// NewService creates a new inventory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Quantity returns the current balance for (store, product).
// A missing ledger row reads as zero.
func (s *Service) Quantity(ctx context.Context, storeID, productID id.ID) (types.Quantity, error) {
	ledger, found, err := s.repo.Get(ctx, storeID, productID)
	if err != nil {
		return 0, fmt.Errorf("get ledger: %w", err)
	}
	if !found {
		return 0, nil
	}
	return ledger.Quantity, nil
}

// shortfall captures one failed sufficiency check.
type shortfall struct {
	ProductID id.ID
	Requested types.Quantity
	Available types.Quantity
	NotStocked bool
}

// EnsureAvailable locks every requested ledger row and verifies
// sufficiency. All requirements are checked before failing so the caller
// sees the complete list of shortfalls, not just the first.
//
// Must be called inside the workflow's transaction: the row locks taken
// here serialize concurrent decrements until commit.
func (s *Service) EnsureAvailable(ctx context.Context, storeID id.ID, reqs []Requirement) error {
	var shortfalls []shortfall

	for _, req := range reqs {
		ledger, found, err := s.repo.GetForUpdate(ctx, storeID, req.ProductID)
		if err != nil {
			return fmt.Errorf("lock ledger for %s: %w", req.ProductID, err)
		}
		if !found {
			shortfalls = append(shortfalls, shortfall{
				ProductID:  req.ProductID,
				Requested:  req.Quantity,
				NotStocked: true,
			})
			continue
		}
		if ledger.Quantity < req.Quantity {
			shortfalls = append(shortfalls, shortfall{
				ProductID: req.ProductID,
				Requested: req.Quantity,
				Available: ledger.Quantity,
			})
		}
	}

	if len(shortfalls) == 0 {
		return nil
	}

	if len(shortfalls) == 1 && !shortfalls[0].NotStocked {
		sf := shortfalls[0]
		return apperror.NewInsufficientStock(
			storeID.String(), sf.ProductID.String(),
			sf.Requested.Int64(), sf.Available.Int64(),
		)
	}
	if len(shortfalls) == 1 && shortfalls[0].NotStocked {
		return apperror.NewProductNotStocked(storeID.String(), shortfalls[0].ProductID.String())
	}

	details := make([]map[string]any, 0, len(shortfalls))
	for _, sf := range shortfalls {
		entry := map[string]any{
			"product_id": sf.ProductID.String(),
			"requested":  sf.Requested.Int64(),
			"available":  sf.Available.Int64(),
		}
		if sf.NotStocked {
			entry["not_stocked"] = true
		}
		details = append(details, entry)
	}
	return (&apperror.AppError{
		Code:       apperror.CodeInsufficientStock,
		Message:    "Insufficient stock for one or more items",
		HTTPStatus: http.StatusUnprocessableEntity,
	}).WithDetail("store_id", storeID.String()).
		WithDetail("shortfalls", details)
}

// Apply executes a batch of ledger adjustments and journals them.
//
// Decrements re-verify sufficiency under the row lock even when the
// caller already ran EnsureAvailable: the invariant quantity >= 0 is
// enforced at every mutation, before writing, so insufficient stock
// surfaces as a business error rather than a constraint violation.
// Increments create the ledger row when absent.
func (s *Service) Apply(ctx context.Context, adjustments []Adjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	now := time.Now().UTC()
	movements := make([]Movement, 0, len(adjustments))

	for _, adj := range adjustments {
		if adj.Delta.IsZero() {
			continue
		}

		ledger, found, err := s.repo.GetForUpdate(ctx, adj.StoreID, adj.ProductID)
		if err != nil {
			return fmt.Errorf("lock ledger for %s: %w", adj.ProductID, err)
		}

		switch {
		case !found && adj.Delta.IsPositive():
			ledger = NewLedger(adj.StoreID, adj.ProductID, adj.Delta)
			ledger.LastRestockAt = &now
			if err := s.repo.Create(ctx, ledger); err != nil {
				return fmt.Errorf("create ledger: %w", err)
			}

		case !found:
			return apperror.NewProductNotStocked(adj.StoreID.String(), adj.ProductID.String())

		default:
			newQty := ledger.Quantity + adj.Delta
			if newQty.IsNegative() {
				return apperror.NewInsufficientStock(
					adj.StoreID.String(), adj.ProductID.String(),
					adj.Delta.Neg().Int64(), ledger.Quantity.Int64(),
				)
			}
			restocked := adj.Delta.IsPositive()
			if err := s.repo.UpdateQuantity(ctx, adj.StoreID, adj.ProductID, newQty, restocked); err != nil {
				return fmt.Errorf("update ledger: %w", err)
			}
		}

		movements = append(movements, Movement{
			LineID:       id.New(),
			DocumentID:   adj.DocumentID,
			DocumentType: adj.DocumentType,
			StoreID:      adj.StoreID,
			ProductID:    adj.ProductID,
			Delta:        adj.Delta,
			Reason:       adj.Reason,
			CreatedAt:    now,
		})
	}

	if err := s.repo.RecordMovements(ctx, movements); err != nil {
		return fmt.Errorf("record movements: %w", err)
	}

	logger.Debug(ctx, "applied ledger adjustments", "count", len(movements))
	return nil
}

// Adjust applies a single manual adjustment and returns the new balance.
func (s *Service) Adjust(ctx context.Context, storeID, productID id.ID, delta types.Quantity, reason Reason) (types.Quantity, error) {
	if delta.IsZero() {
		return 0, apperror.NewValidation("delta must be non-zero").
			WithDetail("field", "delta")
	}

	err := s.Apply(ctx, []Adjustment{{
		StoreID:   storeID,
		ProductID: productID,
		Delta:     delta,
		Reason:    reason,
	}})
	if err != nil {
		return 0, err
	}

	return s.Quantity(ctx, storeID, productID)
}

// Assign creates the ledger row on first stock assignment.
func (s *Service) Assign(ctx context.Context, ledger *Ledger) error {
	if err := ledger.Validate(ctx); err != nil {
		return err
	}

	_, found, err := s.repo.Get(ctx, ledger.StoreID, ledger.ProductID)
	if err != nil {
		return fmt.Errorf("get ledger: %w", err)
	}
	if found {
		return apperror.NewDuplicate("inventory", "store/product",
			ledger.StoreID.String()+"/"+ledger.ProductID.String())
	}

	if err := s.repo.Create(ctx, ledger); err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}

	if ledger.Quantity.IsPositive() {
		err = s.repo.RecordMovements(ctx, []Movement{{
			LineID:    id.New(),
			StoreID:   ledger.StoreID,
			ProductID: ledger.ProductID,
			Delta:     ledger.Quantity,
			Reason:    ReasonAdjustment,
			CreatedAt: time.Now().UTC(),
		}})
		if err != nil {
			return fmt.Errorf("record initial movement: %w", err)
		}
	}

	logger.Info(ctx, "inventory assigned",
		"store_id", ledger.StoreID,
		"product_id", ledger.ProductID,
		"quantity", ledger.Quantity,
	)
	return nil
}

// SetThresholds updates the reorder thresholds for a ledger row.
func (s *Service) SetThresholds(ctx context.Context, storeID, productID id.ID, minStock, maxStock types.Quantity) error {
	if maxStock <= minStock {
		return apperror.NewValidation("maxStock must be greater than minStock").
			WithDetail("min_stock", minStock).
			WithDetail("max_stock", maxStock)
	}
	if minStock.IsNegative() {
		return apperror.NewValidation("minStock cannot be negative")
	}

	_, found, err := s.repo.Get(ctx, storeID, productID)
	if err != nil {
		return fmt.Errorf("get ledger: %w", err)
	}
	if !found {
		return apperror.NewNotFound("inventory", storeID.String()+"/"+productID.String())
	}

	return s.repo.UpdateThresholds(ctx, storeID, productID, minStock, maxStock)
}

// ListByStore returns ledger rows for one store.
func (s *Service) ListByStore(ctx context.Context, storeID id.ID, filter domain.ListFilter) (domain.ListResult[*Ledger], error) {
	return s.repo.ListByStore(ctx, storeID, filter)
}

// ListLowStock returns rows at or below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context, storeID id.ID) ([]*Ledger, error) {
	return s.repo.ListLowStock(ctx, storeID)
}

// History returns the movement journal for a product.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.MovementHistory(ctx, productID, filter)
}
