// Package credit provides customer credit documents. Two kinds exist:
// fiado (take now, pay later) hands goods over at creation and decrements
// stock immediately; apartado (layaway) reserves nothing until the credit
// is fully paid, at which point stock is decremented all-or-nothing.
package credit

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Kind distinguishes the two credit modes.
type Kind string

const (
	KindFiado    Kind = "fiado"
	KindApartado Kind = "apartado"
)

// Status is the credit lifecycle state. Apart from cancellation it is a
// pure function of the paid amount: nothing paid is pending, something
// paid is partial, everything paid is completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod enumerates accepted credit payment channels.
type PaymentMethod string

const (
	PaymentEfectivo     PaymentMethod = "efectivo"
	PaymentNequi        PaymentMethod = "nequi"
	PaymentDaviplata    PaymentMethod = "daviplata"
	PaymentLlave        PaymentMethod = "llave_bancolombia"
	PaymentTarjeta      PaymentMethod = "tarjeta"
	PaymentTransferencia PaymentMethod = "transferencia"
)

// ValidPaymentMethod reports whether m is a known payment channel.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentEfectivo, PaymentNequi, PaymentDaviplata,
		PaymentLlave, PaymentTarjeta, PaymentTransferencia:
		return true
	}
	return false
}

// Credit is a customer credit document.
type Credit struct {
	entity.Document

	Kind Kind `db:"kind" json:"kind"`

	CustomerName     string `db:"customer_name" json:"customerName"`
	CustomerPhone    string `db:"customer_phone" json:"customerPhone,omitempty"`
	CustomerDocument string `db:"customer_document" json:"customerDocument,omitempty"`

	// DueDate is informational only; nothing changes state when it passes.
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`

	Items    []Line    `db:"-" json:"items"`
	Payments []Payment `db:"-" json:"payments"`

	Total types.Money `db:"total" json:"total"`

	Status      Status     `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`
}

// Line is one credited item.
type Line struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Subtotal  types.Money    `db:"subtotal" json:"subtotal"`
}

// Payment is one append-only installment against the credit.
// Payments are never edited or removed.
type Payment struct {
	LineID     id.ID         `db:"line_id" json:"lineId"`
	Amount     types.Money   `db:"amount" json:"amount"`
	Method     PaymentMethod `db:"method" json:"method"`
	PaidAt     time.Time     `db:"paid_at" json:"paidAt"`
	ReceivedBy string        `db:"received_by" json:"receivedBy,omitempty"`
	Notes      string        `db:"notes" json:"notes,omitempty"`
}

// NewCredit creates a credit for a store.
func NewCredit(storeID id.ID, kind Kind, customerName string) *Credit {
	return &Credit{
		Document:     entity.NewDocument(storeID),
		Kind:         kind,
		CustomerName: customerName,
		Items:        make([]Line, 0),
		Payments:     make([]Payment, 0),
		Status:       StatusPending,
	}
}

// AddLine appends a credited item. Call ComputeTotals before persisting.
func (c *Credit) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.Money) {
	c.Items = append(c.Items, Line{
		LineID:    id.New(),
		LineNo:    len(c.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// ComputeTotals derives per-line subtotals and the credit total.
func (c *Credit) ComputeTotals() {
	total := types.ZeroMoney()
	for i := range c.Items {
		line := &c.Items[i]
		line.Subtotal = line.UnitPrice.Mul(types.MoneyFromInt(line.Quantity.Int64()))
		total = total.Add(line.Subtotal)
	}
	c.Total = total
}

// PaidTotal sums all recorded payments.
func (c *Credit) PaidTotal() types.Money {
	paid := types.ZeroMoney()
	for _, p := range c.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Remaining is the outstanding balance.
func (c *Credit) Remaining() types.Money {
	return c.Total.Sub(c.PaidTotal())
}

// DeriveStatus recomputes Status from the payment state. Cancellation
// and completion are sticky; otherwise the status follows the balance.
func (c *Credit) DeriveStatus() {
	if c.Status == StatusCancelled || c.Status == StatusCompleted {
		return
	}
	switch {
	case !c.Remaining().IsPositive():
		c.MarkCompleted()
	case c.PaidTotal().IsPositive():
		c.Status = StatusPartial
	default:
		c.Status = StatusPending
	}
}

// Validate implements entity.Validatable.
func (c *Credit) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}
	if c.Kind != KindFiado && c.Kind != KindApartado {
		return apperror.NewValidation("kind must be fiado or apartado").
			WithDetail("field", "kind").
			WithDetail("value", string(c.Kind))
	}
	if c.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}
	if len(c.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, line := range c.Items {
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
	return nil
}

// MarkCompleted records full payment.
func (c *Credit) MarkCompleted() {
	now := time.Now().UTC()
	c.Status = StatusCompleted
	c.CompletedAt = &now
	c.Touch()
}

// MarkCancelled records the active -> cancelled transition.
// Completed credits cannot be cancelled: the goods already left.
func (c *Credit) MarkCancelled(by, reason string) error {
	switch c.Status {
	case StatusCompleted:
		return apperror.NewBusinessRule(apperror.CodeCreditCompleted,
			"Completed credits cannot be cancelled")
	case StatusCancelled:
		return apperror.NewInvalidTransition("credit", string(c.Status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	c.Status = StatusCancelled
	c.CancelledBy = &by
	c.CancelledAt = &now
	c.CancellationReason = &reason
	c.Touch()
	return nil
}
