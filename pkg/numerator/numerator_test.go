package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int64)
	}
	key, _ := args[0].(string)
	m.seqs[key]++
	return &mockRow{val: m.seqs[key]}
}

func TestNextAt_Format(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.NextAt(ctx, DefaultConfig("SALE"), at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SALE-2026-00001" {
		t.Errorf("expected SALE-2026-00001, got %s", num)
	}

	num, err = svc.NextAt(ctx, DefaultConfig("SALE"), at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SALE-2026-00002" {
		t.Errorf("expected SALE-2026-00002, got %s", num)
	}
}

func TestNextAt_SeparateKeysPerPrefixAndYear(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := context.Background()
	y26 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	y27 := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	first, _ := svc.NextAt(ctx, DefaultConfig("TR"), y26)
	second, _ := svc.NextAt(ctx, DefaultConfig("PO"), y26)
	third, _ := svc.NextAt(ctx, DefaultConfig("TR"), y27)

	if first != "TR-2026-00001" {
		t.Errorf("got %s", first)
	}
	if second != "PO-2026-00001" {
		t.Errorf("prefixes must not share sequences, got %s", second)
	}
	if third != "TR-2027-00001" {
		t.Errorf("years must not share sequences, got %s", third)
	}
}

func TestNextAt_NoYear(t *testing.T) {
	svc := New(&mockQuerier{})
	cfg := Config{Prefix: "ADJ", PadWidth: 4}

	num, err := svc.NextAt(context.Background(), cfg, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ADJ-0001" {
		t.Errorf("expected ADJ-0001, got %s", num)
	}
}
