package credit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/credit"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

type creditRepo struct {
	credits map[id.ID]*credit.Credit
}

func newCreditRepo() *creditRepo {
	return &creditRepo{credits: make(map[id.ID]*credit.Credit)}
}

func (r *creditRepo) Create(ctx context.Context, c *credit.Credit) error {
	r.credits[c.ID] = c
	return nil
}

func (r *creditRepo) GetByID(ctx context.Context, creditID id.ID) (*credit.Credit, error) {
	c, ok := r.credits[creditID]
	if !ok {
		return nil, apperror.NewNotFound("credit", creditID.String())
	}
	return c, nil
}

func (r *creditRepo) GetForUpdate(ctx context.Context, creditID id.ID) (*credit.Credit, error) {
	return r.GetByID(ctx, creditID)
}

func (r *creditRepo) Update(ctx context.Context, c *credit.Credit) error {
	r.credits[c.ID] = c
	return nil
}

func (r *creditRepo) AppendPayment(ctx context.Context, creditID id.ID, p credit.Payment) error {
	return nil
}

func (r *creditRepo) List(ctx context.Context, filter credit.Filter) (domain.ListResult[*credit.Credit], error) {
	var items []*credit.Credit
	for _, c := range r.credits {
		items = append(items, c)
	}
	return domain.ListResult[*credit.Credit]{Items: items, TotalCount: int64(len(items))}, nil
}

func newCreditFixture() (*credit.Service, *creditRepo, *testutil.InventoryRepo, *testutil.ProductCatalog) {
	repo := newCreditRepo()
	inv := testutil.NewInventoryRepo()
	catalog := testutil.NewProductCatalog()
	svc := credit.NewService(repo, inventory.NewService(inv), catalog, testutil.NewNumerator(), testutil.TxManager{})
	return svc, repo, inv, catalog
}

func TestCreate_FiadoDecrementsImmediately(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 4, types.MustMoney("18.00"))

	err := svc.Create(ctx, doc, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 6, inv.Quantity(storeID, p.ID))
	assert.Equal(t, credit.StatusPending, doc.Status)
	assert.Contains(t, doc.Number, "CR-")
}

func TestCreate_ApartadoLeavesStockUntouched(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Don Pedro")
	doc.AddLine(p.ID, 3, types.MustMoney("26.00"))

	err := svc.Create(ctx, doc, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID), "apartado must not move stock at creation")
}

func TestCreate_FiadoInsufficientStockRejected(t *testing.T) {
	svc, repo, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("SAB-45", "Papas 45g", types.MustMoney("15.00"))
	inv.Seed(storeID, p.ID, 2)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 5, types.MustMoney("15.00"))

	err := svc.Create(ctx, doc, nil)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 2, inv.Quantity(storeID, p.ID))
	assert.Empty(t, repo.credits)
}

func TestCreate_InitialPaymentExceedingTotalRejected(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("PAN-BCO", "Pan Blanco", types.MustMoney("38.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Don Pedro")
	doc.AddLine(p.ID, 1, types.MustMoney("38.00"))

	err := svc.Create(ctx, doc, &credit.PaymentInput{
		Amount: types.MustMoney("50.00"),
		Method: credit.PaymentEfectivo,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCreate_InitialPaymentSettlingApartadoCompletes(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("JAB-200", "Jabón 200g", types.MustMoney("22.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Don Pedro")
	doc.AddLine(p.ID, 2, types.MustMoney("22.00"))

	err := svc.Create(ctx, doc, &credit.PaymentInput{
		Amount: types.MustMoney("44.00"),
		Method: credit.PaymentNequi,
	})
	require.NoError(t, err)

	assert.Equal(t, credit.StatusCompleted, doc.Status)
	assert.EqualValues(t, 8, inv.Quantity(storeID, p.ID), "full payment hands the goods over")
}

func TestAddPayment_PartialThenCompleted(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Doña Rosa")
	doc.AddLine(p.ID, 2, types.MustMoney("18.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))

	updated, err := svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("16.00"),
		Method: credit.PaymentEfectivo,
	})
	require.NoError(t, err)
	assert.Equal(t, credit.StatusPartial, updated.Status)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))

	updated, err = svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("20.00"),
		Method: credit.PaymentEfectivo,
	})
	require.NoError(t, err)
	assert.Equal(t, credit.StatusCompleted, updated.Status)
	assert.EqualValues(t, 8, inv.Quantity(storeID, p.ID))
}

func TestAddPayment_ApartadoShortfallBlocksCompletion(t *testing.T) {
	svc, repo, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))
	inv.Seed(storeID, p.ID, 5)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Don Pedro")
	doc.AddLine(p.ID, 3, types.MustMoney("26.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))

	// The reserved goods were sold out from under the layaway.
	require.NoError(t, inv.UpdateQuantity(ctx, storeID, p.ID, 1, false))

	_, err := svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("78.00"),
		Method: credit.PaymentEfectivo,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 1, inv.Quantity(storeID, p.ID))
	assert.NotEqual(t, credit.StatusCompleted, repo.credits[doc.ID].Status)
}

func TestAddPayment_OverpaymentRejected(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("SAB-45", "Papas 45g", types.MustMoney("15.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 1, types.MustMoney("15.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))

	_, err := svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("15.01"),
		Method: credit.PaymentEfectivo,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestAddPayment_CompletedCreditRejected(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("PAN-BCO", "Pan Blanco", types.MustMoney("38.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 1, types.MustMoney("38.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))

	_, err := svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("38.00"),
		Method: credit.PaymentEfectivo,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, doc.ID, credit.PaymentInput{
		Amount: types.MustMoney("1.00"),
		Method: credit.PaymentEfectivo,
	})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCreditCompleted, appErr.Code)
}

func TestCancel_FiadoRestocks(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 4, types.MustMoney("18.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))
	require.EqualValues(t, 6, inv.Quantity(storeID, p.ID))

	cancelled, err := svc.Cancel(ctx, doc.ID, "never picked up")
	require.NoError(t, err)

	assert.Equal(t, credit.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))
}

func TestCancel_ApartadoLeavesLedgerAlone(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindApartado, "Don Pedro")
	doc.AddLine(p.ID, 3, types.MustMoney("26.00"))
	require.NoError(t, svc.Create(ctx, doc, nil))

	_, err := svc.Cancel(ctx, doc.ID, "customer gave up")
	require.NoError(t, err)

	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))
}

func TestCancel_CompletedRejected(t *testing.T) {
	svc, _, inv, catalog := newCreditFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("JAB-200", "Jabón 200g", types.MustMoney("22.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := credit.NewCredit(storeID, credit.KindFiado, "Doña Rosa")
	doc.AddLine(p.ID, 1, types.MustMoney("22.00"))
	require.NoError(t, svc.Create(ctx, doc, &credit.PaymentInput{
		Amount: types.MustMoney("22.00"),
		Method: credit.PaymentEfectivo,
	}))
	require.Equal(t, credit.StatusCompleted, doc.Status)

	_, err := svc.Cancel(ctx, doc.ID, "too late")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCreditCompleted, appErr.Code)
}
