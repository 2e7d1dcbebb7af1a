// Package sale provides the Sale document: a completed point-of-sale
// transaction that decrements inventory atomically with its creation.
package sale

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Status is the sale lifecycle state.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// PaymentMethod enumerates accepted payment methods.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

// Sale is a point-of-sale transaction.
type Sale struct {
	entity.Document

	Items []Line `db:"-" json:"items"`

	// Totals are derived: Total = sum(line subtotals),
	// FinalTotal = Total + Tax - Discount. ComputeTotals recalculates
	// them; they are never recomputed implicitly on save.
	Total      types.Money `db:"total" json:"total"`
	Tax        types.Money `db:"tax" json:"tax"`
	Discount   types.Money `db:"discount" json:"discount"`
	FinalTotal types.Money `db:"final_total" json:"finalTotal"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Status        Status        `db:"status" json:"status"`

	// Cancellation metadata, set on the completed -> cancelled transition.
	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`
}

// Line is one sold item.
type Line struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Subtotal  types.Money    `db:"subtotal" json:"subtotal"`
}

// NewSale creates a sale for a store.
func NewSale(storeID id.ID, paymentMethod PaymentMethod) *Sale {
	return &Sale{
		Document:      entity.NewDocument(storeID),
		Items:         make([]Line, 0),
		Tax:           types.ZeroMoney(),
		Discount:      types.ZeroMoney(),
		PaymentMethod: paymentMethod,
		Status:        StatusCompleted,
	}
}

// AddLine appends a sold item. Call ComputeTotals before persisting.
func (s *Sale) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	s.Items = append(s.Items, Line{
		LineID:    id.New(),
		LineNo:    len(s.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// ComputeTotals derives per-line subtotals and document totals.
func (s *Sale) ComputeTotals() {
	total := types.ZeroMoney()
	for i := range s.Items {
		line := &s.Items[i]
		line.Subtotal = line.UnitPrice.Mul(types.MoneyFromInt(line.Quantity.Int64()))
		total = total.Add(line.Subtotal)
	}
	s.Total = total
	s.FinalTotal = total.Add(s.Tax).Sub(s.Discount)
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if !ValidPaymentMethod(s.PaymentMethod) {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(s.PaymentMethod))
	}
	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, line := range s.Items {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	if s.Tax.IsNegative() || s.Discount.IsNegative() {
		return apperror.NewValidation("tax and discount cannot be negative")
	}
	return nil
}

// MarkCancelled records the completed -> cancelled transition.
func (s *Sale) MarkCancelled(by, reason string) error {
	if s.Status != StatusCompleted {
		return apperror.NewBusinessRule(apperror.CodeSaleNotCompleted,
			"Only completed sales can be cancelled").
			WithDetail("status", string(s.Status))
	}
	now := time.Now().UTC()
	s.Status = StatusCancelled
	s.CancelledBy = &by
	s.CancelledAt = &now
	s.CancellationReason = &reason
	s.Touch()
	return nil
}
