package sale_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/testutil"
)

type saleRepo struct {
	sales map[id.ID]*sale.Sale
}

func newSaleRepo() *saleRepo {
	return &saleRepo{sales: make(map[id.ID]*sale.Sale)}
}

func (r *saleRepo) Create(ctx context.Context, s *sale.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *saleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return s, nil
}

func (r *saleRepo) Update(ctx context.Context, s *sale.Sale) error {
	r.sales[s.ID] = s
	return nil
}

func (r *saleRepo) List(ctx context.Context, filter sale.Filter) (domain.ListResult[*sale.Sale], error) {
	var items []*sale.Sale
	for _, s := range r.sales {
		items = append(items, s)
	}
	return domain.ListResult[*sale.Sale]{Items: items, TotalCount: int64(len(items))}, nil
}

func newSaleFixture() (*sale.Service, *saleRepo, *testutil.InventoryRepo, *testutil.ProductCatalog) {
	repo := newSaleRepo()
	inv := testutil.NewInventoryRepo()
	catalog := testutil.NewProductCatalog()
	svc := sale.NewService(repo, inventory.NewService(inv), catalog, testutil.NewNumerator(), testutil.TxManager{})
	return svc, repo, inv, catalog
}

func TestCreate_DecrementsStockAtomically(t *testing.T) {
	svc, repo, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("REF-600", "Refresco 600ml", types.MustMoney("18.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := sale.NewSale(storeID, sale.PaymentCash)
	doc.AddLine(p.ID, 3, types.MustMoney("18.00"))

	err := svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.EqualValues(t, 7, inv.Quantity(storeID, p.ID))
	assert.Contains(t, doc.Number, "SALE-")
	assert.Equal(t, sale.StatusCompleted, doc.Status)
	assert.True(t, doc.FinalTotal.Equal(types.MustMoney("54.00")))
	require.Len(t, repo.sales, 1)
}

func TestCreate_ShortLineRejectsWholeSale(t *testing.T) {
	svc, repo, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	plenty := catalog.Add("A-1", "Plenty", types.MustMoney("5.00"))
	scarce := catalog.Add("B-2", "Scarce", types.MustMoney("7.00"))
	inv.Seed(storeID, plenty.ID, 100)
	inv.Seed(storeID, scarce.ID, 1)

	doc := sale.NewSale(storeID, sale.PaymentCash)
	doc.AddLine(plenty.ID, 5, types.MustMoney("5.00"))
	doc.AddLine(scarce.ID, 2, types.MustMoney("7.00"))

	err := svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.EqualValues(t, 100, inv.Quantity(storeID, plenty.ID), "no line may decrement")
	assert.EqualValues(t, 1, inv.Quantity(storeID, scarce.ID))
	assert.Empty(t, repo.sales, "sale must not be persisted")
}

func TestCreate_ZeroPriceTakesCatalogPrice(t *testing.T) {
	svc, _, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("LECHE-1L", "Leche Entera", types.MustMoney("26.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := sale.NewSale(storeID, sale.PaymentCard)
	doc.AddLine(p.ID, 2, types.ZeroMoney())

	err := svc.Create(ctx, doc)
	require.NoError(t, err)

	assert.True(t, doc.Items[0].UnitPrice.Equal(types.MustMoney("26.00")))
	assert.True(t, doc.FinalTotal.Equal(types.MustMoney("52.00")))
}

func TestCreate_InactiveProductRejected(t *testing.T) {
	svc, _, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("OLD-1", "Discontinued", types.MustMoney("9.00"))
	p.IsActive = false
	inv.Seed(storeID, p.ID, 10)

	doc := sale.NewSale(storeID, sale.PaymentCash)
	doc.AddLine(p.ID, 1, types.MustMoney("9.00"))

	err := svc.Create(ctx, doc)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))
}

func TestCancel_RestocksEveryLine(t *testing.T) {
	svc, _, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("PAN-BCO", "Pan Blanco", types.MustMoney("38.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := sale.NewSale(storeID, sale.PaymentCash)
	doc.AddLine(p.ID, 3, types.MustMoney("38.00"))
	require.NoError(t, svc.Create(ctx, doc))
	require.EqualValues(t, 7, inv.Quantity(storeID, p.ID))

	cancelled, err := svc.Cancel(ctx, doc.ID, "customer changed mind")
	require.NoError(t, err)

	assert.Equal(t, sale.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID))
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "customer changed mind", *cancelled.CancellationReason)
}

func TestCancel_OnlyFromCompleted(t *testing.T) {
	svc, _, inv, catalog := newSaleFixture()
	ctx := testutil.AdminContext()

	storeID := id.New()
	p := catalog.Add("SAB-45", "Papas 45g", types.MustMoney("15.00"))
	inv.Seed(storeID, p.ID, 10)

	doc := sale.NewSale(storeID, sale.PaymentCash)
	doc.AddLine(p.ID, 1, types.MustMoney("15.00"))
	require.NoError(t, svc.Create(ctx, doc))

	_, err := svc.Cancel(ctx, doc.ID, "first")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, doc.ID, "second")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSaleNotCompleted, appErr.Code)
	assert.EqualValues(t, 10, inv.Quantity(storeID, p.ID), "double cancel must not restock twice")
}
