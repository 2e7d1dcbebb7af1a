package purchaseorder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/purchaseorder"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

type orderRepo struct {
	orders map[id.ID]*purchaseorder.PurchaseOrder
}

func newOrderRepo() *orderRepo {
	return &orderRepo{orders: make(map[id.ID]*purchaseorder.PurchaseOrder)}
}

func (r *orderRepo) Create(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID id.ID) (*purchaseorder.PurchaseOrder, error) {
	po, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", orderID.String())
	}
	return po, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, orderID id.ID) (*purchaseorder.PurchaseOrder, error) {
	return r.GetByID(ctx, orderID)
}

func (r *orderRepo) Update(ctx context.Context, po *purchaseorder.PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *orderRepo) List(ctx context.Context, filter purchaseorder.Filter) (domain.ListResult[*purchaseorder.PurchaseOrder], error) {
	var items []*purchaseorder.PurchaseOrder
	for _, po := range r.orders {
		items = append(items, po)
	}
	return domain.ListResult[*purchaseorder.PurchaseOrder]{Items: items, TotalCount: int64(len(items))}, nil
}

func newOrderFixture() (*purchaseorder.Service, *testutil.InventoryRepo, *testutil.ProductCatalog) {
	repo := newOrderRepo()
	inv := testutil.NewInventoryRepo()
	catalog := testutil.NewProductCatalog()
	svc := purchaseorder.NewService(repo, inventory.NewService(inv), catalog, testutil.NewNumerator(), testutil.TxManager{})
	return svc, inv, catalog
}

func TestCreate_NumbersAndTotals(t *testing.T) {
	svc, _, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))

	doc := purchaseorder.NewPurchaseOrder(id.New(), id.New())
	doc.AddLine(p.ID, 10, types.MustMoney("12.50"))
	doc.Shipping = types.MustMoney("30.00")

	err := svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.Contains(t, doc.Number, "PO-")
	assert.Equal(t, purchaseorder.StatusPending, doc.Status)
	assert.True(t, doc.Subtotal.Equal(types.MustMoney("125.00")))
	assert.True(t, doc.Total.Equal(types.MustMoney("155.00")))
}

func TestReceive_IncrementsLedgerAndCreatesRow(t *testing.T) {
	svc, inv, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))

	doc := purchaseorder.NewPurchaseOrder(storeID, id.New())
	doc.AddLine(p.ID, 20, types.MustMoney("20.00"))
	require.NoError(t, svc.Create(ctx, doc))

	received, err := svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, purchaseorder.StatusReceived, received.Status)
	assert.EqualValues(t, 20, inv.Quantity(storeID, p.ID), "ledger row is created on first receipt")
	assert.NotNil(t, received.ReceivedAt)
}

func TestReceive_PartialDerivesPartialStatus(t *testing.T) {
	svc, inv, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("SAB-45", "Papas 45g", types.MustMoney("15.00"))
	inv.Seed(storeID, p.ID, 5)

	doc := purchaseorder.NewPurchaseOrder(storeID, id.New())
	doc.AddLine(p.ID, 30, types.MustMoney("10.00"))
	require.NoError(t, svc.Create(ctx, doc))

	received, err := svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, purchaseorder.StatusPartial, received.Status)
	assert.EqualValues(t, 17, inv.Quantity(storeID, p.ID))

	received, err = svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 18},
	})
	require.NoError(t, err)
	assert.Equal(t, purchaseorder.StatusReceived, received.Status)
	assert.EqualValues(t, 35, inv.Quantity(storeID, p.ID))
}

func TestReceive_CumulativeCapEnforced(t *testing.T) {
	svc, inv, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("PAN-BCO", "Pan Blanco", types.MustMoney("38.00"))

	doc := purchaseorder.NewPurchaseOrder(storeID, id.New())
	doc.AddLine(p.ID, 10, types.MustMoney("30.00"))
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 7},
	})
	require.NoError(t, err)

	_, err = svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 4},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
	assert.EqualValues(t, 7, inv.Quantity(storeID, p.ID), "over-receipt must not touch the ledger")
}

func TestReceive_UnknownProductRejected(t *testing.T) {
	svc, _, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	p := catalog.Add("JAB-200", "Jabón 200g", types.MustMoney("22.00"))

	doc := purchaseorder.NewPurchaseOrder(id.New(), id.New())
	doc.AddLine(p.ID, 5, types.MustMoney("18.00"))
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: id.New(), Quantity: 1},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReceive_CancelledOrderRejected(t *testing.T) {
	svc, inv, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))

	doc := purchaseorder.NewPurchaseOrder(storeID, id.New())
	doc.AddLine(p.ID, 10, types.MustMoney("12.50"))
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Cancel(ctx, doc.ID, "supplier out of business")
	require.NoError(t, err)

	_, err = svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 1},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
	assert.EqualValues(t, 0, inv.Quantity(storeID, p.ID))
}

func TestCancel_FullyReceivedRejected(t *testing.T) {
	svc, _, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))

	doc := purchaseorder.NewPurchaseOrder(id.New(), id.New())
	doc.AddLine(p.ID, 5, types.MustMoney("20.00"))
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Receive(ctx, doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 5},
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, doc.ID, "too late")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestCreate_ZeroCostTakesCatalogCost(t *testing.T) {
	svc, _, catalog := newOrderFixture()
	ctx := testutil.AdminContext()

	p := catalog.AddWithCost("CAFE-500", "Café 500g", types.MustMoney("95.00"), types.MustMoney("70.00"))

	doc := purchaseorder.NewPurchaseOrder(id.New(), id.New())
	doc.AddLine(p.ID, 2, types.ZeroMoney())

	err := svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.True(t, doc.Items[0].UnitCost.Equal(types.MustMoney("70.00")))
	assert.True(t, doc.Subtotal.Equal(types.MustMoney("140.00")))
}

func TestReceive_OnlyOrderingStoreMayBook(t *testing.T) {
	svc, inv, catalog := newOrderFixture()

	storeID := id.New()
	p := catalog.Add("AZUCAR-1K", "Azucar Refinada", types.MustMoney("22.00"))

	doc := purchaseorder.NewPurchaseOrder(storeID, id.New())
	doc.AddLine(p.ID, 10, types.MustMoney("16.00"))
	require.NoError(t, svc.Create(testutil.AdminContext(), doc))

	_, err := svc.Receive(testutil.StoreUserContext(id.New().String()), doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 10},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.EqualValues(t, 0, inv.Quantity(storeID, p.ID))

	received, err := svc.Receive(testutil.StoreUserContext(storeID.String()), doc.ID, []purchaseorder.Receipt{
		{ProductID: p.ID, Quantity: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, purchaseorder.StatusReceived, received.Status)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))
}
