// Package inventory provides the per-(store, product) stock ledger.
// The ledger row is the single source of truth for how much of a product
// exists at a store, and the unit of consistency for every stock-mutating
// workflow (sales, credits, transfers, purchase orders, returns).
package inventory

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Ledger is the stock record for one (store, product) pair.
// (store_id, product_id) carries a unique index; Quantity never goes
// below zero.
type Ledger struct {
	entity.BaseEntity

	StoreID   id.ID `db:"store_id" json:"storeId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Reorder thresholds. MaxStock must exceed MinStock.
	MinStock types.Quantity `db:"min_stock" json:"minStock"`
	MaxStock types.Quantity `db:"max_stock" json:"maxStock"`

	LastRestockAt *time.Time `db:"last_restock_at" json:"lastRestockAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLedger creates a ledger row with default thresholds.
func NewLedger(storeID, productID id.ID, quantity types.Quantity) *Ledger {
	now := time.Now().UTC()
	return &Ledger{
		BaseEntity: entity.NewBaseEntity(),
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   quantity,
		MinStock:   10,
		MaxStock:   1000,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate implements entity.Validatable.
func (l *Ledger) Validate(ctx context.Context) error {
	if id.IsNil(l.StoreID) {
		return apperror.NewValidation("store is required").
			WithDetail("field", "storeId")
	}
	if id.IsNil(l.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if l.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if l.MaxStock <= l.MinStock {
		return apperror.NewValidation("maxStock must be greater than minStock").
			WithDetail("min_stock", l.MinStock).
			WithDetail("max_stock", l.MaxStock)
	}
	return nil
}

// IsLow reports whether stock fell to or below the reorder threshold.
func (l *Ledger) IsLow() bool {
	return l.Quantity <= l.MinStock
}

// Reason classifies a ledger movement for the journal.
type Reason string

const (
	ReasonSale           Reason = "sale"
	ReasonSaleCancel     Reason = "sale_cancel"
	ReasonCredit         Reason = "credit"
	ReasonCreditCancel   Reason = "credit_cancel"
	ReasonTransferOut    Reason = "transfer_out"
	ReasonTransferIn     Reason = "transfer_in"
	ReasonTransferCancel Reason = "transfer_cancel"
	ReasonPurchase       Reason = "purchase_receipt"
	ReasonReturn         Reason = "return"
	ReasonExchange       Reason = "exchange"
	ReasonAdjustment     Reason = "manual_adjustment"
)

// Movement is an append-only journal row recorded for every ledger
// mutation. Movements are immutable; they exist for audit and reporting,
// the ledger row holds the current balance.
type Movement struct {
	LineID id.ID `db:"line_id" json:"lineId"`

	// DocumentID/DocumentType reference the owning document (sale,
	// transfer, ...). Nil DocumentID marks a manual adjustment.
	DocumentID   id.ID  `db:"document_id" json:"documentId"`
	DocumentType string `db:"document_type" json:"documentType"`

	StoreID   id.ID `db:"store_id" json:"storeId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	// Delta is signed: positive for receipts, negative for expenses.
	Delta types.Quantity `db:"delta" json:"delta"`

	Reason    Reason    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Adjustment is one requested ledger mutation within a business action.
type Adjustment struct {
	StoreID      id.ID
	ProductID    id.ID
	Delta        types.Quantity
	Reason       Reason
	DocumentID   id.ID
	DocumentType string
}

// Requirement is a stock sufficiency check request.
type Requirement struct {
	ProductID id.ID
	Quantity  types.Quantity
}
