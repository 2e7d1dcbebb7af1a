package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

func TestEnsureAvailable_Sufficient(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 10)

	err := svc.EnsureAvailable(context.Background(), storeID, []inventory.Requirement{
		{ProductID: productID, Quantity: 10},
	})
	require.NoError(t, err)
}

func TestEnsureAvailable_SingleShortfall(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 3)

	err := svc.EnsureAvailable(context.Background(), storeID, []inventory.Requirement{
		{ProductID: productID, Quantity: 5},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(5), appErr.Details["requested"])
	assert.Equal(t, int64(3), appErr.Details["available"])
}

func TestEnsureAvailable_NotStocked(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	err := svc.EnsureAvailable(context.Background(), id.New(), []inventory.Requirement{
		{ProductID: id.New(), Quantity: 1},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeProductNotStocked, appErr.Code)
}

func TestEnsureAvailable_CollectsAllShortfalls(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	shortOne := id.New()
	shortTwo := id.New()
	okProduct := id.New()
	repo.Seed(storeID, shortOne, 1)
	repo.Seed(storeID, okProduct, 100)

	err := svc.EnsureAvailable(context.Background(), storeID, []inventory.Requirement{
		{ProductID: shortOne, Quantity: 2},
		{ProductID: okProduct, Quantity: 5},
		{ProductID: shortTwo, Quantity: 3},
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	shortfalls, ok := appErr.Details["shortfalls"].([]map[string]any)
	require.True(t, ok, "expected shortfall list in details")
	require.Len(t, shortfalls, 2)
	assert.Equal(t, shortOne.String(), shortfalls[0]["product_id"])
	assert.Equal(t, shortTwo.String(), shortfalls[1]["product_id"])
	assert.Equal(t, true, shortfalls[1]["not_stocked"])
}

func TestApply_CreatesRowOnReceipt(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()

	err := svc.Apply(context.Background(), []inventory.Adjustment{{
		StoreID:   storeID,
		ProductID: productID,
		Delta:     25,
		Reason:    inventory.ReasonPurchase,
	}})
	require.NoError(t, err)

	assert.EqualValues(t, 25, repo.Quantity(storeID, productID))
	require.Len(t, repo.Movements, 1)
	assert.Equal(t, inventory.ReasonPurchase, repo.Movements[0].Reason)
}

func TestApply_DecrementBelowZeroRejected(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 4)

	err := svc.Apply(context.Background(), []inventory.Adjustment{{
		StoreID:   storeID,
		ProductID: productID,
		Delta:     -5,
		Reason:    inventory.ReasonSale,
	}})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 4, repo.Quantity(storeID, productID), "balance must not change")
	assert.Empty(t, repo.Movements)
}

func TestApply_SkipsZeroDeltas(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 10)

	err := svc.Apply(context.Background(), []inventory.Adjustment{
		{StoreID: storeID, ProductID: productID, Delta: 0, Reason: inventory.ReasonAdjustment},
		{StoreID: storeID, ProductID: productID, Delta: -2, Reason: inventory.ReasonSale},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 8, repo.Quantity(storeID, productID))
	assert.Len(t, repo.Movements, 1)
}

func TestAdjust_ReturnsNewBalance(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 10)

	qty, err := svc.Adjust(context.Background(), storeID, productID, -3, inventory.ReasonAdjustment)
	require.NoError(t, err)
	assert.EqualValues(t, 7, qty)
}

func TestAdjust_ZeroDeltaRejected(t *testing.T) {
	svc := inventory.NewService(testutil.NewInventoryRepo())

	_, err := svc.Adjust(context.Background(), id.New(), id.New(), 0, inventory.ReasonAdjustment)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestAssign_DuplicateRejected(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 5)

	err := svc.Assign(context.Background(), inventory.NewLedger(storeID, productID, 1))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestAssign_JournalsInitialStock(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()

	err := svc.Assign(context.Background(), inventory.NewLedger(storeID, productID, 40))
	require.NoError(t, err)

	assert.EqualValues(t, 40, repo.Quantity(storeID, productID))
	require.Len(t, repo.Movements, 1)
	assert.Equal(t, inventory.ReasonAdjustment, repo.Movements[0].Reason)
}

func TestSetThresholds_Validation(t *testing.T) {
	repo := testutil.NewInventoryRepo()
	svc := inventory.NewService(repo)

	storeID := id.New()
	productID := id.New()
	repo.Seed(storeID, productID, 5)

	err := svc.SetThresholds(context.Background(), storeID, productID, 20, 20)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	err = svc.SetThresholds(context.Background(), storeID, id.New(), 5, 50)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}
