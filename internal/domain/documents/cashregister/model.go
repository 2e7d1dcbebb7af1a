// Package cashregister provides per-store cash register sessions.
// At most one session per store may be open at a time; the database
// backs this with a partial unique index on (store_id) WHERE status =
// 'open', and the service checks it first to return a business error
// instead of a constraint violation.
package cashregister

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Status is the session state.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// MovementType classifies a manual cash movement.
type MovementType string

const (
	MovementIncome  MovementType = "income"
	MovementExpense MovementType = "expense"
)

// Session is one cash register shift at a store.
type Session struct {
	entity.Document

	Status Status `db:"status" json:"status"`

	OpenedBy      string      `db:"opened_by" json:"openedBy"`
	OpenedAt      time.Time   `db:"opened_at" json:"openedAt"`
	OpeningAmount types.Money `db:"opening_amount" json:"openingAmount"`

	Movements []Movement `db:"-" json:"movements"`

	ClosedBy *string    `db:"closed_by" json:"closedBy,omitempty"`
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	// Closing figures. ExpectedAmount = opening + cash sales during the
	// session + income - expense; Difference = counted - expected.
	ClosingAmount  *types.Money `db:"closing_amount" json:"closingAmount,omitempty"`
	ExpectedAmount *types.Money `db:"expected_amount" json:"expectedAmount,omitempty"`
	Difference     *types.Money `db:"difference" json:"difference,omitempty"`
}

// Movement is one manual cash in/out during the session.
type Movement struct {
	LineID      id.ID        `db:"line_id" json:"lineId"`
	Type        MovementType `db:"type" json:"type"`
	Amount      types.Money  `db:"amount" json:"amount"`
	Description string       `db:"description" json:"description"`
	CreatedBy   string       `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// NewSession opens a session for a store.
func NewSession(storeID id.ID, openedBy string, openingAmount types.Money) *Session {
	now := time.Now().UTC()
	return &Session{
		Document:      entity.NewDocument(storeID),
		Status:        StatusOpen,
		OpenedBy:      openedBy,
		OpenedAt:      now,
		OpeningAmount: openingAmount,
		Movements:     make([]Movement, 0),
	}
}

// Validate implements entity.Validatable.
func (s *Session) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if s.OpeningAmount.IsNegative() {
		return apperror.NewValidation("opening amount cannot be negative").
			WithDetail("field", "openingAmount")
	}
	return nil
}

// MovementTotal sums movements of one type.
func (s *Session) MovementTotal(t MovementType) types.Money {
	total := types.ZeroMoney()
	for _, m := range s.Movements {
		if m.Type == t {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// MarkClosed records the close with counted cash and the expectation
// computed by the service.
func (s *Session) MarkClosed(by string, counted, expected types.Money) error {
	if s.Status != StatusOpen {
		return apperror.NewInvalidTransition("cash_register", string(s.Status), string(StatusClosed))
	}
	now := time.Now().UTC()
	diff := counted.Sub(expected)
	s.Status = StatusClosed
	s.ClosedBy = &by
	s.ClosedAt = &now
	s.ClosingAmount = &counted
	s.ExpectedAmount = &expected
	s.Difference = &diff
	s.Touch()
	return nil
}
