package testutil

import (
	"context"
	"sort"
	"time"

	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/inventory"
)

type ledgerKey struct {
	store   id.ID
	product id.ID
}

// InventoryRepo is an in-memory inventory.Repository. Row locks are a
// no-op: tests exercise single-goroutine workflows.
type InventoryRepo struct {
	rows      map[ledgerKey]*inventory.Ledger
	Movements []inventory.Movement
}

// NewInventoryRepo creates an empty in-memory ledger.
func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{rows: make(map[ledgerKey]*inventory.Ledger)}
}

// Seed creates a ledger row with the given balance and returns it.
func (r *InventoryRepo) Seed(storeID, productID id.ID, quantity types.Quantity) *inventory.Ledger {
	ledger := inventory.NewLedger(storeID, productID, quantity)
	r.rows[ledgerKey{storeID, productID}] = ledger
	return ledger
}

// Quantity returns the current balance, zero when no row exists.
func (r *InventoryRepo) Quantity(storeID, productID id.ID) types.Quantity {
	if ledger, ok := r.rows[ledgerKey{storeID, productID}]; ok {
		return ledger.Quantity
	}
	return 0
}

func (r *InventoryRepo) Get(ctx context.Context, storeID, productID id.ID) (*inventory.Ledger, bool, error) {
	ledger, ok := r.rows[ledgerKey{storeID, productID}]
	if !ok {
		return nil, false, nil
	}
	cp := *ledger
	return &cp, true, nil
}

func (r *InventoryRepo) GetForUpdate(ctx context.Context, storeID, productID id.ID) (*inventory.Ledger, bool, error) {
	return r.Get(ctx, storeID, productID)
}

func (r *InventoryRepo) Create(ctx context.Context, ledger *inventory.Ledger) error {
	cp := *ledger
	r.rows[ledgerKey{ledger.StoreID, ledger.ProductID}] = &cp
	return nil
}

func (r *InventoryRepo) UpdateQuantity(ctx context.Context, storeID, productID id.ID, quantity types.Quantity, restocked bool) error {
	ledger := r.rows[ledgerKey{storeID, productID}]
	ledger.Quantity = quantity
	if restocked {
		now := time.Now().UTC()
		ledger.LastRestockAt = &now
	}
	ledger.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InventoryRepo) UpdateThresholds(ctx context.Context, storeID, productID id.ID, minStock, maxStock types.Quantity) error {
	ledger := r.rows[ledgerKey{storeID, productID}]
	ledger.MinStock = minStock
	ledger.MaxStock = maxStock
	return nil
}

func (r *InventoryRepo) ListByStore(ctx context.Context, storeID id.ID, filter domain.ListFilter) (domain.ListResult[*inventory.Ledger], error) {
	var items []*inventory.Ledger
	for _, ledger := range r.rows {
		if ledger.StoreID == storeID {
			cp := *ledger
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID.String() < items[j].ProductID.String()
	})
	return domain.ListResult[*inventory.Ledger]{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *InventoryRepo) ListLowStock(ctx context.Context, storeID id.ID) ([]*inventory.Ledger, error) {
	var items []*inventory.Ledger
	for _, ledger := range r.rows {
		if ledger.StoreID == storeID && ledger.IsLow() {
			cp := *ledger
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (r *InventoryRepo) RecordMovements(ctx context.Context, movements []inventory.Movement) error {
	r.Movements = append(r.Movements, movements...)
	return nil
}

func (r *InventoryRepo) MovementHistory(ctx context.Context, productID id.ID, filter inventory.MovementFilter) ([]inventory.Movement, error) {
	var out []inventory.Movement
	for _, m := range r.Movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}
