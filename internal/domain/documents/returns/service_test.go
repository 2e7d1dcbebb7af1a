package returns_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/returns"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

type returnRepo struct {
	returns map[id.ID]*returns.Return
}

func newReturnRepo() *returnRepo {
	return &returnRepo{returns: make(map[id.ID]*returns.Return)}
}

func (r *returnRepo) Create(ctx context.Context, doc *returns.Return) error {
	r.returns[doc.ID] = doc
	return nil
}

func (r *returnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	doc, ok := r.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound("return", returnID.String())
	}
	return doc, nil
}

func (r *returnRepo) GetForUpdate(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	return r.GetByID(ctx, returnID)
}

func (r *returnRepo) Update(ctx context.Context, doc *returns.Return) error {
	r.returns[doc.ID] = doc
	return nil
}

func (r *returnRepo) SumReturnedBySale(ctx context.Context, saleID id.ID) (map[id.ID]int64, error) {
	sums := make(map[id.ID]int64)
	for _, doc := range r.returns {
		if doc.SaleID != saleID || doc.Status == returns.StatusRejected {
			continue
		}
		for _, line := range doc.Items {
			sums[line.ProductID] += line.Quantity.Int64()
		}
	}
	return sums, nil
}

func (r *returnRepo) List(ctx context.Context, filter returns.Filter) (domain.ListResult[*returns.Return], error) {
	var items []*returns.Return
	for _, doc := range r.returns {
		items = append(items, doc)
	}
	return domain.ListResult[*returns.Return]{Items: items, TotalCount: int64(len(items))}, nil
}

type saleReader struct {
	sales map[id.ID]*sale.Sale
}

func (r *saleReader) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return s, nil
}

type returnFixture struct {
	svc     *returns.Service
	repo    *returnRepo
	inv     *testutil.InventoryRepo
	storeID id.ID
	soldOne id.ID
	soldTwo id.ID
	sale    *sale.Sale
}

// newReturnFixture builds a completed sale of 3x soldOne at 18.00 and
// 2x soldTwo at 26.00 from a store holding 10 of each.
func newReturnFixture() *returnFixture {
	repo := newReturnRepo()
	inv := testutil.NewInventoryRepo()

	storeID := id.New()
	soldOne := id.New()
	soldTwo := id.New()
	inv.Seed(storeID, soldOne, 10)
	inv.Seed(storeID, soldTwo, 10)

	original := sale.NewSale(storeID, sale.PaymentCash)
	original.AddLine(soldOne, 3, types.MustMoney("18.00"))
	original.AddLine(soldTwo, 2, types.MustMoney("26.00"))
	original.ComputeTotals()

	reader := &saleReader{sales: map[id.ID]*sale.Sale{original.ID: original}}
	svc := returns.NewService(repo, reader, inventory.NewService(inv), testutil.NewNumerator(), testutil.TxManager{})

	return &returnFixture{
		svc:     svc,
		repo:    repo,
		inv:     inv,
		storeID: storeID,
		soldOne: soldOne,
		soldTwo: soldTwo,
		sale:    original,
	}
}

func TestCreate_PricesComeFromOriginalSale(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 2, types.ZeroMoney(), "defective")

	err := f.svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, f.storeID, doc.StoreID, "store is stamped from the sale")
	assert.True(t, doc.Items[0].UnitPrice.Equal(types.MustMoney("18.00")))
	assert.True(t, doc.TotalRefund.Equal(types.MustMoney("36.00")))
	assert.Contains(t, doc.Number, "RET-")
	assert.Equal(t, returns.StatusPending, doc.Status)
	assert.EqualValues(t, 10, f.inv.Quantity(f.storeID, f.soldOne), "no stock moves before completion")
}

func TestCreate_NonCompletedSaleRejected(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()
	f.sale.Status = sale.StatusCancelled

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "defective")

	err := f.svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleNotCompleted, appErr.Code)
}

func TestCreate_CapAcrossEarlierReturns(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	first := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	first.AddLine(f.soldOne, 2, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, first))

	second := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	second.AddLine(f.soldOne, 2, types.ZeroMoney(), "defective")

	err := f.svc.Create(ctx, second)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCreate_RejectedReturnsDoNotCountTowardCap(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	first := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	first.AddLine(f.soldOne, 3, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, first))
	_, err := f.svc.Reject(ctx, first.ID, "no receipt")
	require.NoError(t, err)

	second := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	second.AddLine(f.soldOne, 3, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, second))
}

func TestCreate_ProductNotOnSaleRejected(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(id.New(), 1, types.ZeroMoney(), "defective")

	err := f.svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreate_StoreUserOfAnotherStoreForbidden(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.StoreUserContext(id.New().String())

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "defective")

	err := f.svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestComplete_RefundRestocks(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 2, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, doc))

	_, err := f.svc.Approve(ctx, doc.ID)
	require.NoError(t, err)

	completed, err := f.svc.Complete(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, returns.StatusCompleted, completed.Status)
	assert.EqualValues(t, 12, f.inv.Quantity(f.storeID, f.soldOne))
}

func TestComplete_ExchangeRestocksAndHandsOut(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindExchange)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "wrong flavor")
	doc.AddExchangeLine(f.soldTwo, 1, types.MustMoney("26.00"))
	require.NoError(t, f.svc.Create(ctx, doc))
	assert.True(t, doc.PriceDifference.Equal(types.MustMoney("8.00")))

	_, err := f.svc.Approve(ctx, doc.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, doc.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 11, f.inv.Quantity(f.storeID, f.soldOne))
	assert.EqualValues(t, 9, f.inv.Quantity(f.storeID, f.soldTwo))
}

func TestComplete_ExchangeShortfallBlocksEverything(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindExchange)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "wrong flavor")
	doc.AddExchangeLine(f.soldTwo, 1, types.MustMoney("26.00"))
	require.NoError(t, f.svc.Create(ctx, doc))
	_, err := f.svc.Approve(ctx, doc.ID)
	require.NoError(t, err)

	// The replacement sold out before completion.
	require.NoError(t, f.inv.UpdateQuantity(ctx, f.storeID, f.soldTwo, 0, false))

	_, err = f.svc.Complete(ctx, doc.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 10, f.inv.Quantity(f.storeID, f.soldOne), "restock must roll back with the hand-out")
}

func TestComplete_OnlyFromApproved(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, doc))

	_, err := f.svc.Complete(ctx, doc.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestReject_OnlyFromPending(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindRefund)
	doc.AddLine(f.soldOne, 1, types.ZeroMoney(), "defective")
	require.NoError(t, f.svc.Create(ctx, doc))
	_, err := f.svc.Approve(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, doc.ID, "changed mind")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestComplete_SameProductExchangeWorksWithEmptyShelf(t *testing.T) {
	f := newReturnFixture()
	ctx := testutil.AdminContext()

	doc := returns.NewReturn(id.Nil(), f.sale.ID, returns.KindExchange)
	doc.AddLine(f.soldOne, 2, types.ZeroMoney(), "defective")
	doc.AddExchangeLine(f.soldOne, 1, types.MustMoney("18.00"))
	require.NoError(t, f.svc.Create(ctx, doc))
	_, err := f.svc.Approve(ctx, doc.ID)
	require.NoError(t, err)

	// Shelf sold out; the two units coming back cover the replacement.
	require.NoError(t, f.inv.UpdateQuantity(ctx, f.storeID, f.soldOne, 0, false))

	_, err = f.svc.Complete(ctx, doc.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.inv.Quantity(f.storeID, f.soldOne))
}
