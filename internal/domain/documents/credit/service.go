package credit

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

// PaymentInput is one installment request.
type PaymentInput struct {
	Amount types.Money
	Method PaymentMethod
	Notes  string
}

func (in PaymentInput) validate() error {
	if !in.Amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if !ValidPaymentMethod(in.Method) {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method))
	}
	return nil
}

// Service provides credit operations.
type Service struct {
	repo      Repository
	inv       *inventory.Service
	products  ProductReader
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new credit service.
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

// Create validates and persists a credit, optionally recording an
// initial payment in the same transaction.
//
// Fiado hands the goods over immediately, so stock is checked and
// decremented here. Apartado holds the goods at the store until fully
// paid; no stock moves at creation unless the initial payment already
// settles the whole balance, in which case the credit completes right
// away under the usual all-or-nothing stock rules.
func (s *Service) Create(ctx context.Context, doc *Credit, initial *PaymentInput) error {
	doc.ComputeTotals()

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if initial != nil {
		if err := initial.validate(); err != nil {
			return err
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
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
			if line.UnitPrice.IsZero() {
				line.UnitPrice = p.Price
			}
		}
		doc.ComputeTotals()

		if initial != nil && initial.Amount.GreaterThan(doc.Total) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Initial payment exceeds credit total").
				WithDetail("amount", initial.Amount).
				WithDetail("total", doc.Total)
		}

		if doc.Kind == KindFiado {
			if err := s.inv.EnsureAvailable(ctx, doc.StoreID, s.requirements(doc)); err != nil {
				return err
			}
		}

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("CR"))
		if err != nil {
			return fmt.Errorf("generate credit number: %w", err)
		}
		doc.Number = number
		doc.CreatedBy = appctx.GetUserID(ctx)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create credit: %w", err)
		}

		if doc.Kind == KindFiado {
			if err := s.inv.Apply(ctx, s.adjustments(doc, -1, inventory.ReasonCredit)); err != nil {
				return err
			}
		}

		if initial != nil {
			if err := s.recordPayment(ctx, doc, *initial); err != nil {
				return err
			}
		}

		logger.Info(ctx, "credit created",
			"credit_id", doc.ID,
			"number", doc.Number,
			"kind", doc.Kind,
			"store_id", doc.StoreID,
			"total", doc.Total,
			"status", doc.Status,
		)
		return nil
	})
}

// AddPayment records one installment against an open credit.
//
// When the payment settles the balance the credit completes in the same
// transaction. For apartado, completion is the moment stock is handed
// over: every line is checked first (all shortfalls collected, not just
// the first) and then decremented. Any shortfall rolls back the payment
// with the rest of the transaction, leaving the credit partial.
func (s *Service) AddPayment(ctx context.Context, creditID id.ID, in PaymentInput) (*Credit, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var doc *Credit

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, creditID)
		if err != nil {
			return err
		}

		switch doc.Status {
		case StatusCompleted:
			return apperror.NewBusinessRule(apperror.CodeCreditCompleted,
				"Credit is already fully paid").
				WithDetail("credit_id", doc.ID.String())
		case StatusCancelled:
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Cannot pay a cancelled credit").
				WithDetail("credit_id", doc.ID.String())
		}

		remaining := doc.Remaining()
		if in.Amount.GreaterThan(remaining) {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Payment exceeds remaining balance").
				WithDetail("amount", in.Amount).
				WithDetail("remaining", remaining)
		}

		return s.recordPayment(ctx, doc, in)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// recordPayment appends the payment, re-derives the status, and settles
// the credit when the balance hits zero. Must run inside the caller's
// transaction.
func (s *Service) recordPayment(ctx context.Context, doc *Credit, in PaymentInput) error {
	payment := Payment{
		LineID:     id.New(),
		Amount:     in.Amount,
		Method:     in.Method,
		PaidAt:     time.Now().UTC(),
		ReceivedBy: appctx.GetUserID(ctx),
		Notes:      in.Notes,
	}
	if err := s.repo.AppendPayment(ctx, doc.ID, payment); err != nil {
		return fmt.Errorf("append payment: %w", err)
	}
	doc.Payments = append(doc.Payments, payment)

	if doc.Remaining().IsPositive() {
		doc.DeriveStatus()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update credit: %w", err)
		}
		logger.Info(ctx, "credit payment recorded",
			"credit_id", doc.ID,
			"amount", in.Amount,
			"remaining", doc.Remaining(),
		)
		return nil
	}

	// Balance settled. For apartado the goods leave the store now, in
	// this same transaction: all lines are verified before any
	// decrement, and a shortfall aborts payment and completion together.
	if doc.Kind == KindApartado {
		if err := s.inv.EnsureAvailable(ctx, doc.StoreID, s.requirements(doc)); err != nil {
			return err
		}
		if err := s.inv.Apply(ctx, s.adjustments(doc, -1, inventory.ReasonCredit)); err != nil {
			return err
		}
	}

	doc.DeriveStatus()
	if err := s.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update credit: %w", err)
	}

	logger.Info(ctx, "credit completed",
		"credit_id", doc.ID,
		"number", doc.Number,
		"kind", doc.Kind,
	)
	return nil
}

// Cancel voids an open credit. Fiado returns the handed-over goods to
// stock; apartado never moved stock, so the ledger is untouched.
// Completed credits are rejected.
func (s *Service) Cancel(ctx context.Context, creditID id.ID, reason string) (*Credit, error) {
	var doc *Credit

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, creditID)
		if err != nil {
			return err
		}

		if err := doc.MarkCancelled(appctx.GetUserID(ctx), reason); err != nil {
			return err
		}

		if doc.Kind == KindFiado {
			if err := s.inv.Apply(ctx, s.adjustments(doc, 1, inventory.ReasonCreditCancel)); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update credit: %w", err)
		}

		logger.Info(ctx, "credit cancelled",
			"credit_id", doc.ID,
			"number", doc.Number,
			"kind", doc.Kind,
			"reason", reason,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns a credit with lines and payments.
func (s *Service) GetByID(ctx context.Context, creditID id.ID) (*Credit, error) {
	return s.repo.GetByID(ctx, creditID)
}

// List returns credits matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Credit], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) requirements(doc *Credit) []inventory.Requirement {
	reqs := make([]inventory.Requirement, 0, len(doc.Items))
	for _, line := range doc.Items {
		reqs = append(reqs, inventory.Requirement{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return reqs
}

// adjustments builds ledger deltas for every line; sign is -1 for
// hand-over, +1 for restock.
func (s *Service) adjustments(doc *Credit, sign int, reason inventory.Reason) []inventory.Adjustment {
	adjs := make([]inventory.Adjustment, 0, len(doc.Items))
	for _, line := range doc.Items {
		delta := line.Quantity
		if sign < 0 {
			delta = delta.Neg()
		}
		adjs = append(adjs, inventory.Adjustment{
			StoreID:      doc.StoreID,
			ProductID:    line.ProductID,
			Delta:        delta,
			Reason:       reason,
			DocumentID:   doc.ID,
			DocumentType: DocumentType,
		})
	}
	return adjs
}
