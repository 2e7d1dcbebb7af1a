// Package returns provides sale returns and exchanges.
//
// A return moves through pending -> approved -> completed, with
// rejected reachable only from pending. Approval is a human checkpoint:
// no stock or money moves until completion, which restocks the returned
// items and, for exchanges, hands out the replacement items in one
// transaction.
package returns

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Kind is the compensation mode for the returned goods.
type Kind string

const (
	KindRefund      Kind = "refund"
	KindExchange    Kind = "exchange"
	KindStoreCredit Kind = "store_credit"
)

// ValidKind reports whether k is a known return kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindRefund, KindExchange, KindStoreCredit:
		return true
	}
	return false
}

// Status is the return lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Return reverses part or all of a completed sale.
type Return struct {
	entity.Document

	SaleID id.ID `db:"sale_id" json:"saleId"`

	Kind Kind `db:"kind" json:"kind"`

	Items         []Line         `db:"-" json:"items"`
	ExchangeItems []ExchangeLine `db:"-" json:"exchangeItems,omitempty"`

	TotalRefund types.Money `db:"total_refund" json:"totalRefund"`

	// PriceDifference = sum(exchange line subtotals) - TotalRefund,
	// fixed at creation time for display. Positive means the customer
	// owes the difference.
	PriceDifference types.Money `db:"price_difference" json:"priceDifference"`

	Status Status `db:"status" json:"status"`

	ApprovedBy  *string    `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	RejectedBy      *string    `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

// Line is one returned item with its reason.
type Line struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Reason    string         `db:"reason" json:"reason"`
}

// ExchangeLine is one replacement item handed out at completion.
type ExchangeLine struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
}

// NewReturn creates a return against a sale.
func NewReturn(storeID, saleID id.ID, kind Kind) *Return {
	return &Return{
		Document: entity.NewDocument(storeID),
		SaleID:   saleID,
		Kind:     kind,
		Items:    make([]Line, 0),
		Status:   StatusPending,
	}
}

// AddLine appends a returned item.
func (r *Return) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money, reason string) {
	r.Items = append(r.Items, Line{
		LineID:    id.New(),
		LineNo:    len(r.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Reason:    reason,
	})
}

// AddExchangeLine appends a replacement item.
func (r *Return) AddExchangeLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	r.ExchangeItems = append(r.ExchangeItems, ExchangeLine{
		LineID:    id.New(),
		LineNo:    len(r.ExchangeItems) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// ComputeTotals derives TotalRefund and PriceDifference.
func (r *Return) ComputeTotals() {
	refund := types.ZeroMoney()
	for _, line := range r.Items {
		refund = refund.Add(line.UnitPrice.Mul(types.MoneyFromInt(line.Quantity.Int64())))
	}
	r.TotalRefund = refund

	exchange := types.ZeroMoney()
	for _, line := range r.ExchangeItems {
		exchange = exchange.Add(line.UnitPrice.Mul(types.MoneyFromInt(line.Quantity.Int64())))
	}
	r.PriceDifference = exchange.Sub(refund)
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(r.SaleID) {
		return apperror.NewValidation("sale is required").
			WithDetail("field", "saleId")
	}
	if !ValidKind(r.Kind) {
		return apperror.NewValidation("invalid return kind").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, line := range r.Items {
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
	}
	if r.Kind == KindExchange && len(r.ExchangeItems) == 0 {
		return apperror.NewValidation("exchange requires replacement items").
			WithDetail("field", "exchangeItems")
	}
	if r.Kind != KindExchange && len(r.ExchangeItems) > 0 {
		return apperror.NewValidation("only exchanges carry replacement items").
			WithDetail("field", "exchangeItems")
	}
	for i, line := range r.ExchangeItems {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "exchangeItems").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "exchangeItems").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

// MarkApproved records the pending -> approved checkpoint.
func (r *Return) MarkApproved(by string) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidTransition("return", string(r.Status), string(StatusApproved))
	}
	now := time.Now().UTC()
	r.Status = StatusApproved
	r.ApprovedBy = &by
	r.ApprovedAt = &now
	r.Touch()
	return nil
}

// MarkRejected records the pending -> rejected transition.
func (r *Return) MarkRejected(by, reason string) error {
	if r.Status != StatusPending {
		return apperror.NewInvalidTransition("return", string(r.Status), string(StatusRejected))
	}
	now := time.Now().UTC()
	r.Status = StatusRejected
	r.RejectedBy = &by
	r.RejectedAt = &now
	r.RejectionReason = &reason
	r.Touch()
	return nil
}

// MarkCompleted records the approved -> completed transition.
func (r *Return) MarkCompleted() error {
	if r.Status != StatusApproved {
		return apperror.NewInvalidTransition("return", string(r.Status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	r.Touch()
	return nil
}
