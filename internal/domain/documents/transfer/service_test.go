package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/transfer"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

type transferRepo struct {
	transfers map[id.ID]*transfer.Transfer
}

func newTransferRepo() *transferRepo {
	return &transferRepo{transfers: make(map[id.ID]*transfer.Transfer)}
}

func (r *transferRepo) Create(ctx context.Context, t *transfer.Transfer) error {
	r.transfers[t.ID] = t
	return nil
}

func (r *transferRepo) GetByID(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	t, ok := r.transfers[transferID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", transferID.String())
	}
	return t, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, transferID id.ID) (*transfer.Transfer, error) {
	return r.GetByID(ctx, transferID)
}

func (r *transferRepo) Update(ctx context.Context, t *transfer.Transfer) error {
	r.transfers[t.ID] = t
	return nil
}

func (r *transferRepo) List(ctx context.Context, filter transfer.Filter) (domain.ListResult[*transfer.Transfer], error) {
	var items []*transfer.Transfer
	for _, t := range r.transfers {
		items = append(items, t)
	}
	return domain.ListResult[*transfer.Transfer]{Items: items, TotalCount: int64(len(items))}, nil
}

func newTransferFixture() (*transfer.Service, *testutil.InventoryRepo) {
	repo := newTransferRepo()
	inv := testutil.NewInventoryRepo()
	svc := transfer.NewService(repo, inventory.NewService(inv), testutil.NewNumerator(), testutil.TxManager{})
	return svc, inv
}

func TestCreate_ChecksAvailabilityWithoutMovingStock(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)

	err := svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusPending, doc.Status)
	assert.EqualValues(t, 10, inv.Quantity(source, productID), "creation must not move stock")
	assert.Contains(t, doc.Number, "TR-")
}

func TestCreate_InsufficientSourceStockRejected(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	productID := id.New()
	inv.Seed(source, productID, 3)

	doc := transfer.NewTransfer(source, id.New())
	doc.AddLine(productID, 5)

	err := svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
}

func TestCreate_SameStoreRejected(t *testing.T) {
	svc, _ := newTransferFixture()

	storeID := id.New()
	doc := transfer.NewTransfer(storeID, storeID)
	doc.AddLine(id.New(), 1)

	err := svc.Create(testutil.AdminContext(), doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestSend_DecrementsSource(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)
	require.NoError(t, svc.Create(ctx, doc))

	sent, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusInTransit, sent.Status)
	assert.EqualValues(t, 4, inv.Quantity(source, productID))
	assert.EqualValues(t, 0, inv.Quantity(dest, productID), "nothing arrives before receipt")
}

func TestReceive_OmittedLineGetsFullQuantity(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)

	received, err := svc.Receive(ctx, doc.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusReceived, received.Status)
	assert.EqualValues(t, 6, inv.Quantity(dest, productID), "destination row is created on first receipt")
	require.NotNil(t, received.Items[0].ReceivedQuantity)
	assert.EqualValues(t, 6, *received.Items[0].ReceivedQuantity)
}

func TestReceive_UnderDeliveryCreditsLess(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)

	received, err := svc.Receive(ctx, doc.ID, []transfer.Receipt{
		{ProductID: productID, Quantity: 4},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 4, inv.Quantity(dest, productID))
	assert.EqualValues(t, 4, *received.Items[0].ReceivedQuantity)
	assert.EqualValues(t, 4, inv.Quantity(source, productID), "source keeps the dispatch-time balance")
}

func TestReceive_ExceedingSentQuantityRejected(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Receive(ctx, doc.ID, []transfer.Receipt{
		{ProductID: productID, Quantity: 7},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.EqualValues(t, 0, inv.Quantity(dest, productID))
}

func TestReceive_OnlyFromInTransit(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, id.New())
	doc.AddLine(productID, 2)
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Receive(ctx, doc.ID, nil)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestCancel_PendingMovesNothing(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, id.New())
	doc.AddLine(productID, 4)
	require.NoError(t, svc.Create(ctx, doc))

	cancelled, err := svc.Cancel(ctx, doc.ID, "not needed")
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 10, inv.Quantity(source, productID))
}

func TestCancel_InTransitRestocksSource(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 6)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)
	require.EqualValues(t, 4, inv.Quantity(source, productID))

	_, err = svc.Cancel(ctx, doc.ID, "truck broke down")
	require.NoError(t, err)

	assert.EqualValues(t, 10, inv.Quantity(source, productID))
	assert.EqualValues(t, 0, inv.Quantity(dest, productID))
}

func TestCancel_ReceivedRejected(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, id.New())
	doc.AddLine(productID, 2)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)
	_, err = svc.Receive(ctx, doc.ID, nil)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, doc.ID, "too late")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
}

func TestSend_OnlyOriginStoreMayDispatch(t *testing.T) {
	svc, inv := newTransferFixture()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 4)
	require.NoError(t, svc.Create(testutil.AdminContext(), doc))

	_, err := svc.Send(testutil.StoreUserContext(id.New().String()), doc.ID)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.EqualValues(t, 10, inv.Quantity(source, productID), "rejected dispatch must not move stock")

	sent, err := svc.Send(testutil.StoreUserContext(source.String()), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusInTransit, sent.Status)
	assert.EqualValues(t, 6, inv.Quantity(source, productID))
}

func TestReceive_OnlyDestinationStoreMaySign(t *testing.T) {
	svc, inv := newTransferFixture()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 4)
	require.NoError(t, svc.Create(testutil.AdminContext(), doc))
	_, err := svc.Send(testutil.AdminContext(), doc.ID)
	require.NoError(t, err)

	_, err = svc.Receive(testutil.StoreUserContext(source.String()), doc.ID, nil)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	assert.EqualValues(t, 0, inv.Quantity(dest, productID))

	received, err := svc.Receive(testutil.StoreUserContext(dest.String()), doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusReceived, received.Status)
	assert.EqualValues(t, 4, inv.Quantity(dest, productID))
}

func TestReceive_UnknownProductRejected(t *testing.T) {
	svc, inv := newTransferFixture()
	ctx := testutil.AdminContext()

	source := id.New()
	dest := id.New()
	productID := id.New()
	inv.Seed(source, productID, 10)

	doc := transfer.NewTransfer(source, dest)
	doc.AddLine(productID, 4)
	require.NoError(t, svc.Create(ctx, doc))
	_, err := svc.Send(ctx, doc.ID)
	require.NoError(t, err)

	_, err = svc.Receive(ctx, doc.ID, []transfer.Receipt{
		{ProductID: id.New(), Quantity: 1},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.EqualValues(t, 0, inv.Quantity(dest, productID), "a mistyped receipt must not book anything")
}
