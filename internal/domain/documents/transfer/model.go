// Package transfer provides inter-store stock transfers.
//
// A transfer moves through pending -> in_transit -> received. Stock
// leaves the source at dispatch and enters the destination at receipt,
// so goods in transit belong to neither ledger. Cancellation is allowed
// from pending (nothing moved) and in_transit (the source is restocked).
package transfer

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Status is the transfer lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Transfer moves stock between two stores. Document.StoreID is the
// source store.
type Transfer struct {
	entity.Document

	ToStoreID id.ID `db:"to_store_id" json:"toStoreId"`

	Items []Line `db:"-" json:"items"`

	Status Status `db:"status" json:"status"`

	SentAt *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	SentBy *string    `db:"sent_by" json:"sentBy,omitempty"`

	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`
	ReceivedBy *string    `db:"received_by" json:"receivedBy,omitempty"`

	CancelledBy        *string    `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt        *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string    `db:"cancellation_reason" json:"cancellationReason,omitempty"`
}

// Line is one transferred item. ReceivedQuantity stays nil until
// receipt; it may come in below Quantity when a shipment is short.
type Line struct {
	LineID           id.ID           `db:"line_id" json:"lineId"`
	LineNo           int             `db:"line_no" json:"lineNo"`
	ProductID        id.ID           `db:"product_id" json:"productId"`
	Quantity         types.Quantity  `db:"quantity" json:"quantity"`
	ReceivedQuantity *types.Quantity `db:"received_quantity" json:"receivedQuantity,omitempty"`
}

// NewTransfer creates a transfer from one store to another.
func NewTransfer(fromStoreID, toStoreID id.ID) *Transfer {
	return &Transfer{
		Document:  entity.NewDocument(fromStoreID),
		ToStoreID: toStoreID,
		Items:     make([]Line, 0),
		Status:    StatusPending,
	}
}

// FromStoreID is the source store (aliases Document.StoreID).
func (t *Transfer) FromStoreID() id.ID {
	return t.StoreID
}

// AddLine appends a transferred item.
func (t *Transfer) AddLine(productID id.ID, quantity types.Quantity) {
	t.Items = append(t.Items, Line{
		LineID:    id.New(),
		LineNo:    len(t.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
	})
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.ToStoreID) {
		return apperror.NewValidation("destination store is required").
			WithDetail("field", "toStoreId")
	}
	if t.ToStoreID == t.StoreID {
		return apperror.NewValidation("source and destination stores must differ").
			WithDetail("field", "toStoreId")
	}
	if len(t.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i, line := range t.Items {
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
	return nil
}

// MarkSent records the pending -> in_transit transition.
func (t *Transfer) MarkSent(by string) error {
	if t.Status != StatusPending {
		return apperror.NewInvalidTransition("transfer", string(t.Status), string(StatusInTransit))
	}
	now := time.Now().UTC()
	t.Status = StatusInTransit
	t.SentAt = &now
	t.SentBy = &by
	t.Touch()
	return nil
}

// MarkReceived records the in_transit -> received transition.
func (t *Transfer) MarkReceived(by string) error {
	if t.Status != StatusInTransit {
		return apperror.NewInvalidTransition("transfer", string(t.Status), string(StatusReceived))
	}
	now := time.Now().UTC()
	t.Status = StatusReceived
	t.ReceivedAt = &now
	t.ReceivedBy = &by
	t.Touch()
	return nil
}

// MarkCancelled records cancellation. Valid from pending and in_transit.
func (t *Transfer) MarkCancelled(by, reason string) error {
	if t.Status != StatusPending && t.Status != StatusInTransit {
		return apperror.NewInvalidTransition("transfer", string(t.Status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	t.Status = StatusCancelled
	t.CancelledBy = &by
	t.CancelledAt = &now
	t.CancellationReason = &reason
	t.Touch()
	return nil
}
