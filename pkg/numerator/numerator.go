// Package numerator provides document auto-numbering.
// Numbers come from a sys_sequences table updated with
// INSERT ... ON CONFLICT ... RETURNING, so they are sequential and
// gap-free within one prefix+year key.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "SALE", "TR", "PO")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// Service provides document numbering functionality.
type Service struct {
	querier Querier
}

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., SALE-2026-00001), or PREFIX-XXXXX
// when IncludeYear is off.
func (s *Service) Next(ctx context.Context, cfg Config) (string, error) {
	return s.NextAt(ctx, cfg, time.Now())
}

// NextAt generates the next number using the given time for the year
// component. Split out so tests can pin the year.
func (s *Service) NextAt(ctx context.Context, cfg Config, now time.Time) (string, error) {
	if cfg.PadWidth <= 0 {
		cfg.PadWidth = 5
	}

	key := cfg.Prefix
	if cfg.IncludeYear {
		key = fmt.Sprintf("%s_%d", cfg.Prefix, now.Year())
	}

	sql := `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`

	var val int64
	if err := s.querier.QueryRow(ctx, sql, key).Scan(&val); err != nil {
		return "", fmt.Errorf("next sequence value for %s: %w", key, err)
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, now.Year(), cfg.PadWidth, val), nil
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, cfg.PadWidth, val), nil
}
