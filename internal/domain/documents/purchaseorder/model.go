// Package purchaseorder provides supplier purchase orders and goods
// receipt. Status is never set directly: it is derived from per-line
// received/ordered comparison after every receipt.
package purchaseorder

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Status is the derived order state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// PurchaseOrder is an order placed with a supplier for one store.
type PurchaseOrder struct {
	entity.Document

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Items []Line `db:"-" json:"items"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Tax      types.Money `db:"tax" json:"tax"`
	Shipping types.Money `db:"shipping" json:"shipping"`
	Total    types.Money `db:"total" json:"total"`

	Status Status `db:"status" json:"status"`

	ExpectedAt *time.Time `db:"expected_at" json:"expectedAt,omitempty"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`
}

// Line is one ordered item. QuantityReceived accumulates across
// receipts.
type Line struct {
	LineID           id.ID          `db:"line_id" json:"lineId"`
	LineNo           int            `db:"line_no" json:"lineNo"`
	ProductID        id.ID          `db:"product_id" json:"productId"`
	QuantityOrdered  types.Quantity `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`
	UnitCost         types.Money    `db:"unit_cost" json:"unitCost"`
	Subtotal         types.Money    `db:"subtotal" json:"subtotal"`
}

// NewPurchaseOrder creates an order against a supplier for a store.
func NewPurchaseOrder(storeID, supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:   entity.NewDocument(storeID),
		SupplierID: supplierID,
		Items:      make([]Line, 0),
		Tax:        types.ZeroMoney(),
		Shipping:   types.ZeroMoney(),
		Status:     StatusPending,
	}
}

// AddLine appends an ordered item. Call ComputeTotals before persisting.
func (po *PurchaseOrder) AddLine(productID id.ID, quantity types.Quantity, unitCost types.Money) {
	po.Items = append(po.Items, Line{
		LineID:          id.New(),
		LineNo:          len(po.Items) + 1,
		ProductID:       productID,
		QuantityOrdered: quantity,
		UnitCost:        unitCost,
	})
}

// ComputeTotals derives per-line subtotals and document totals.
func (po *PurchaseOrder) ComputeTotals() {
	subtotal := types.ZeroMoney()
	for i := range po.Items {
		line := &po.Items[i]
		line.Subtotal = line.UnitCost.Mul(types.MoneyFromInt(line.QuantityOrdered.Int64()))
		subtotal = subtotal.Add(line.Subtotal)
	}
	po.Subtotal = subtotal
	po.Total = subtotal.Add(po.Tax).Add(po.Shipping)
}

// DeriveStatus recomputes Status from per-line receipt progress.
// Cancellation is sticky. The order is received once every line's
// received quantity covers its ordered quantity, partial once anything
// arrived, pending otherwise.
func (po *PurchaseOrder) DeriveStatus() {
	if po.Status == StatusCancelled {
		return
	}

	allReceived := true
	anyReceived := false
	for _, line := range po.Items {
		if line.QuantityReceived.IsPositive() {
			anyReceived = true
		}
		if line.QuantityReceived < line.QuantityOrdered {
			allReceived = false
		}
	}

	switch {
	case allReceived && len(po.Items) > 0:
		if po.Status != StatusReceived {
			now := time.Now().UTC()
			po.ReceivedAt = &now
		}
		po.Status = StatusReceived
	case anyReceived:
		po.Status = StatusPartial
	default:
		po.Status = StatusPending
	}
}

// Validate implements entity.Validatable.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if err := po.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if len(po.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, line := range po.Items {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !line.QuantityOrdered.IsPositive() {
			return apperror.NewValidation("ordered quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}
	if po.Tax.IsNegative() || po.Shipping.IsNegative() {
		return apperror.NewValidation("tax and shipping cannot be negative")
	}
	return nil
}

// MarkCancelled records cancellation. Orders with received goods keep
// them; only further receipt is blocked.
func (po *PurchaseOrder) MarkCancelled(by, reason string) error {
	if po.Status == StatusReceived || po.Status == StatusCancelled {
		return apperror.NewInvalidTransition("purchase_order", string(po.Status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	po.Status = StatusCancelled
	po.CancelledBy = &by
	po.CancelledAt = &now
	po.CancellationReason = &reason
	po.Touch()
	return nil
}
