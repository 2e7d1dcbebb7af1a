package cashregister

import (
	"context"
	"fmt"
	"time"

	"tiendero/internal/core/apperror"
	appctx "tiendero/internal/core/context"
	"tiendero/internal/core/id"
	"tiendero/internal/core/tx"
	"tiendero/internal/core/types"
	"tiendero/internal/domain"
	"tiendero/internal/domain/documents/sale"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

// SalesReader sums completed sales per payment method for a store over
// a time window. Satisfied by the sale repository.
type SalesReader interface {
	TotalsByMethod(ctx context.Context, storeID id.ID, from, to time.Time) (map[sale.PaymentMethod]types.Money, error)
}

// CloseSummary is the reconciliation produced at close.
type CloseSummary struct {
	Session       *Session                           `json:"session"`
	SalesByMethod map[sale.PaymentMethod]types.Money `json:"salesByMethod"`
	Income        types.Money                        `json:"income"`
	Expense       types.Money                        `json:"expense"`
}

// Service provides cash register operations.
type Service struct {
	repo      Repository
	sales     SalesReader
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new cash register service.
func NewService(repo Repository, sales SalesReader, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		sales:     sales,
		numerator: num,
		txManager: txManager,
	}
}

// Open starts a session for a store. A store with an open session is
// rejected; the partial unique index backstops the race between two
// concurrent opens.
func (s *Service) Open(ctx context.Context, storeID id.ID, openingAmount types.Money) (*Session, error) {
	var session *Session

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, open, err := s.repo.GetOpenForUpdate(ctx, storeID)
		if err != nil {
			return err
		}
		if open {
			return apperror.NewBusinessRule(apperror.CodeRegisterOpen,
				"Store already has an open cash register").
				WithDetail("store_id", storeID.String())
		}

		session = NewSession(storeID, appctx.GetUserID(ctx), openingAmount)
		if err := session.Validate(ctx); err != nil {
			return err
		}

		number, err := s.numerator.Next(ctx, numerator.DefaultConfig("CAJA"))
		if err != nil {
			return fmt.Errorf("generate session number: %w", err)
		}
		session.Number = number
		session.CreatedBy = session.OpenedBy

		if err := s.repo.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		logger.Info(ctx, "cash register opened",
			"session_id", session.ID,
			"number", session.Number,
			"store_id", storeID,
			"opening_amount", openingAmount,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddMovement records a manual cash income or expense on the store's
// open session.
func (s *Service) AddMovement(ctx context.Context, storeID id.ID, mtype MovementType, amount types.Money, description string) (*Session, error) {
	if mtype != MovementIncome && mtype != MovementExpense {
		return nil, apperror.NewValidation("movement type must be income or expense").
			WithDetail("field", "type")
	}
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("movement amount must be positive").
			WithDetail("field", "amount")
	}

	var session *Session

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var open bool
		var err error
		session, open, err = s.repo.GetOpenForUpdate(ctx, storeID)
		if err != nil {
			return err
		}
		if !open {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Store has no open cash register").
				WithDetail("store_id", storeID.String())
		}

		m := Movement{
			LineID:      id.New(),
			Type:        mtype,
			Amount:      amount,
			Description: description,
			CreatedBy:   appctx.GetUserID(ctx),
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.repo.AppendMovement(ctx, session.ID, m); err != nil {
			return fmt.Errorf("append movement: %w", err)
		}
		session.Movements = append(session.Movements, m)

		logger.Info(ctx, "cash movement recorded",
			"session_id", session.ID,
			"type", mtype,
			"amount", amount,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Close ends the store's open session, reconciling counted cash against
// the expectation: opening amount + cash sales during the session +
// manual income - manual expense. Sales totals per payment method are
// reported for the whole session window.
func (s *Service) Close(ctx context.Context, storeID id.ID, countedAmount types.Money) (*CloseSummary, error) {
	if countedAmount.IsNegative() {
		return nil, apperror.NewValidation("counted amount cannot be negative").
			WithDetail("field", "countedAmount")
	}

	var summary *CloseSummary

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		session, open, err := s.repo.GetOpenForUpdate(ctx, storeID)
		if err != nil {
			return err
		}
		if !open {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				"Store has no open cash register").
				WithDetail("store_id", storeID.String())
		}

		now := time.Now().UTC()
		byMethod, err := s.sales.TotalsByMethod(ctx, storeID, session.OpenedAt, now)
		if err != nil {
			return fmt.Errorf("sum session sales: %w", err)
		}

		income := session.MovementTotal(MovementIncome)
		expense := session.MovementTotal(MovementExpense)

		cashSales := byMethod[sale.PaymentCash]
		expected := session.OpeningAmount.Add(cashSales).Add(income).Sub(expense)

		if err := session.MarkClosed(appctx.GetUserID(ctx), countedAmount, expected); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, session); err != nil {
			return fmt.Errorf("update session: %w", err)
		}

		summary = &CloseSummary{
			Session:       session,
			SalesByMethod: byMethod,
			Income:        income,
			Expense:       expense,
		}

		logger.Info(ctx, "cash register closed",
			"session_id", session.ID,
			"number", session.Number,
			"expected", expected,
			"counted", countedAmount,
			"difference", countedAmount.Sub(expected),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Current returns the store's open session, if any.
func (s *Service) Current(ctx context.Context, storeID id.ID) (*Session, bool, error) {
	var session *Session
	var open bool

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, open, err = s.repo.GetOpenForUpdate(ctx, storeID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return session, open, nil
}

// GetByID returns a session with its movements.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// List returns sessions matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Session], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
