package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/testutil"
)

type productRepo struct {
	products map[id.ID]*product.Product
	history  []*product.PriceHistory
}

func newProductRepo() *productRepo {
	return &productRepo{products: make(map[id.ID]*product.Product)}
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return p, nil
}

func (r *productRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	return r.GetBySKU(ctx, code)
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku && !p.DeletionMark {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *productRepo) GetByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == barcode && !p.DeletionMark {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", barcode)
}

func (r *productRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) AppendPriceHistory(ctx context.Context, entry *product.PriceHistory) error {
	r.history = append(r.history, entry)
	return nil
}

func (r *productRepo) PriceHistory(ctx context.Context, productID id.ID, limit int) ([]product.PriceHistory, error) {
	var out []product.PriceHistory
	for i := len(r.history) - 1; i >= 0 && len(out) < limit; i-- {
		if r.history[i].ProductID == productID {
			out = append(out, *r.history[i])
		}
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	var items []*product.Product
	for _, p := range r.products {
		items = append(items, p)
	}
	return domain.ListResult[*product.Product]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *productRepo) SetDeletionMark(ctx context.Context, productID id.ID, mark bool) error {
	p, ok := r.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	p.DeletionMark = mark
	return nil
}

func newProductFixture() (*product.Service, *productRepo) {
	repo := newProductRepo()
	return product.NewService(repo, testutil.TxManager{}), repo
}

func TestCreate_DuplicateSKURejected(t *testing.T) {
	svc, _ := newProductFixture()
	ctx := testutil.AdminContext()

	first := product.NewProduct("CAFE-500", "Cafe Molido", "abarrotes",
		types.MustMoney("32.00"), types.MustMoney("24.00"))
	require.NoError(t, svc.Create(ctx, first))

	second := product.NewProduct("CAFE-500", "Cafe de Olla", "abarrotes",
		types.MustMoney("35.00"), types.MustMoney("26.00"))
	err := svc.Create(ctx, second)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestSetPrice_AppendsHistoryEntry(t *testing.T) {
	svc, repo := newProductFixture()
	ctx := testutil.AdminContext()

	p := product.NewProduct("ARROZ-1K", "Arroz Blanco", "abarrotes",
		types.MustMoney("28.00"), types.MustMoney("21.00"))
	require.NoError(t, svc.Create(ctx, p))

	updated, err := svc.SetPrice(ctx, p.ID, types.MustMoney("30.00"), types.MustMoney("22.50"))
	require.NoError(t, err)

	assert.True(t, updated.Price.Equal(types.MustMoney("30.00")))
	assert.True(t, updated.Cost.Equal(types.MustMoney("22.50")))

	history, err := svc.PriceHistory(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].OldPrice.Equal(types.MustMoney("28.00")))
	assert.True(t, history[0].NewPrice.Equal(types.MustMoney("30.00")))
	assert.True(t, history[0].OldCost.Equal(types.MustMoney("21.00")))
	assert.True(t, history[0].NewCost.Equal(types.MustMoney("22.50")))

	require.Len(t, repo.history, 1)
}

func TestSetPrice_UnchangedRecordsNothing(t *testing.T) {
	svc, repo := newProductFixture()
	ctx := testutil.AdminContext()

	p := product.NewProduct("SAL-1K", "Sal de Mesa", "abarrotes",
		types.MustMoney("12.00"), types.MustMoney("8.00"))
	require.NoError(t, svc.Create(ctx, p))

	_, err := svc.SetPrice(ctx, p.ID, types.MustMoney("12.00"), types.MustMoney("8.00"))
	require.NoError(t, err)

	assert.Empty(t, repo.history)
}

func TestSetPrice_NegativeRejected(t *testing.T) {
	svc, _ := newProductFixture()

	_, err := svc.SetPrice(testutil.AdminContext(), id.New(),
		types.MustMoney("-1.00"), types.ZeroMoney())

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
