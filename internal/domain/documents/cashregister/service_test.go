package cashregister_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/cashregister"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/testutil"
)

type registerRepo struct {
	sessions map[id.ID]*cashregister.Session
}

func newRegisterRepo() *registerRepo {
	return &registerRepo{sessions: make(map[id.ID]*cashregister.Session)}
}

func (r *registerRepo) Create(ctx context.Context, s *cashregister.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *registerRepo) GetByID(ctx context.Context, sessionID id.ID) (*cashregister.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("cash session", sessionID.String())
	}
	return s, nil
}

func (r *registerRepo) GetOpenForUpdate(ctx context.Context, storeID id.ID) (*cashregister.Session, bool, error) {
	for _, s := range r.sessions {
		if s.StoreID == storeID && s.Status == cashregister.StatusOpen {
			return s, true, nil
		}
	}
	return nil, false, nil
}

func (r *registerRepo) Update(ctx context.Context, s *cashregister.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *registerRepo) AppendMovement(ctx context.Context, sessionID id.ID, m cashregister.Movement) error {
	return nil
}

func (r *registerRepo) List(ctx context.Context, filter cashregister.Filter) (domain.ListResult[*cashregister.Session], error) {
	var items []*cashregister.Session
	for _, s := range r.sessions {
		items = append(items, s)
	}
	return domain.ListResult[*cashregister.Session]{Items: items, TotalCount: int64(len(items))}, nil
}

// salesTotals serves fixed per-method sums regardless of the window.
type salesTotals struct {
	totals map[sale.PaymentMethod]types.Money
}

func (r *salesTotals) TotalsByMethod(ctx context.Context, storeID id.ID, from, to time.Time) (map[sale.PaymentMethod]types.Money, error) {
	if r.totals == nil {
		return map[sale.PaymentMethod]types.Money{}, nil
	}
	return r.totals, nil
}

func newRegisterFixture(totals map[sale.PaymentMethod]types.Money) (*cashregister.Service, *registerRepo) {
	repo := newRegisterRepo()
	svc := cashregister.NewService(repo, &salesTotals{totals: totals}, testutil.NewNumerator(), testutil.TxManager{})
	return svc, repo
}

func TestOpen_SecondOpenRejected(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()
	storeID := id.New()

	session, err := svc.Open(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)
	assert.Equal(t, cashregister.StatusOpen, session.Status)
	assert.Contains(t, session.Number, "CAJA-")

	_, err = svc.Open(ctx, storeID, types.MustMoney("100.00"))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRegisterOpen, appErr.Code)
}

func TestOpen_OtherStoreUnaffected(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()

	_, err := svc.Open(ctx, id.New(), types.MustMoney("500.00"))
	require.NoError(t, err)
	_, err = svc.Open(ctx, id.New(), types.MustMoney("300.00"))
	require.NoError(t, err)
}

func TestAddMovement_RequiresOpenSession(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()

	_, err := svc.AddMovement(ctx, id.New(), cashregister.MovementIncome, types.MustMoney("50.00"), "float top-up")

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestAddMovement_Validation(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()
	storeID := id.New()
	_, err := svc.Open(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)

	_, err = svc.AddMovement(ctx, storeID, cashregister.MovementType("deposit"), types.MustMoney("10.00"), "x")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = svc.AddMovement(ctx, storeID, cashregister.MovementExpense, types.ZeroMoney(), "x")
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestClose_Reconciliation(t *testing.T) {
	svc, _ := newRegisterFixture(map[sale.PaymentMethod]types.Money{
		sale.PaymentCash: types.MustMoney("1250.00"),
		sale.PaymentCard: types.MustMoney("800.00"),
	})
	ctx := testutil.AdminContext()
	storeID := id.New()

	_, err := svc.Open(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)
	_, err = svc.AddMovement(ctx, storeID, cashregister.MovementIncome, types.MustMoney("200.00"), "owner deposit")
	require.NoError(t, err)
	_, err = svc.AddMovement(ctx, storeID, cashregister.MovementExpense, types.MustMoney("150.00"), "ice supplier")
	require.NoError(t, err)

	// expected = 500 + 1250 cash sales + 200 income - 150 expense
	summary, err := svc.Close(ctx, storeID, types.MustMoney("1790.00"))
	require.NoError(t, err)

	session := summary.Session
	assert.Equal(t, cashregister.StatusClosed, session.Status)
	require.NotNil(t, session.ExpectedAmount)
	assert.True(t, session.ExpectedAmount.Equal(types.MustMoney("1800.00")))
	require.NotNil(t, session.Difference)
	assert.True(t, session.Difference.Equal(types.MustMoney("-10.00")), "counted short by 10")
	assert.True(t, summary.Income.Equal(types.MustMoney("200.00")))
	assert.True(t, summary.Expense.Equal(types.MustMoney("150.00")))
	assert.True(t, summary.SalesByMethod[sale.PaymentCard].Equal(types.MustMoney("800.00")), "card sales reported but not expected in the drawer")
}

func TestClose_NoOpenSessionRejected(t *testing.T) {
	svc, _ := newRegisterFixture(nil)

	_, err := svc.Close(testutil.AdminContext(), id.New(), types.MustMoney("100.00"))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestClose_ThenReopenAllowed(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()
	storeID := id.New()

	_, err := svc.Open(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)
	_, err = svc.Close(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)

	_, err = svc.Open(ctx, storeID, types.MustMoney("400.00"))
	require.NoError(t, err)
}

func TestCurrent_ReportsOpenSession(t *testing.T) {
	svc, _ := newRegisterFixture(nil)
	ctx := testutil.AdminContext()
	storeID := id.New()

	_, open, err := svc.Current(ctx, storeID)
	require.NoError(t, err)
	assert.False(t, open)

	opened, err := svc.Open(ctx, storeID, types.MustMoney("500.00"))
	require.NoError(t, err)

	current, open, err := svc.Current(ctx, storeID)
	require.NoError(t, err)
	assert.True(t, open)
	assert.Equal(t, opened.ID, current.ID)
}
