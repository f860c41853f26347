package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/app/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.KV) {
	t.Helper()
	kv := memory.New()
	return New(storage.NewStore(kv), nil), kv
}

func TestSpentDefaultsToZero(t *testing.T) {
	svc, _ := newTestService(t)

	spent, err := svc.Spent(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 0 {
		t.Fatalf("fresh user spend = %v, want 0", spent)
	}
}

func TestRecordAccumulates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", 1.5); err != nil {
		t.Fatalf("Record: %v", err)
	}
	total, err := svc.Record(ctx, "user-1", 2.5)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %v, want 4", total)
	}

	spent, err := svc.Spent(ctx, "user-1")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 4 {
		t.Fatalf("spent = %v, want 4", spent)
	}
}

func TestRecordIsolatesUsers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", 3); err != nil {
		t.Fatalf("Record: %v", err)
	}
	spent, err := svc.Spent(ctx, "user-2")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 0 {
		t.Fatalf("other user's spend = %v, want 0", spent)
	}
}

func TestSpendResetsAcrossDayBoundary(t *testing.T) {
	kv := memory.New()
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	svc := New(storage.NewStore(kv), nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", 5); err != nil {
		t.Fatalf("Record: %v", err)
	}

	now = now.Add(2 * time.Hour) // next calendar day
	spent, err := svc.Spent(ctx, "user-1")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 0 {
		t.Fatalf("spend after day rollover = %v, want 0", spent)
	}
}

func TestCounterExpiresAfterWindow(t *testing.T) {
	kv := memory.New()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := start
	kv.WithClock(func() time.Time { return clock })
	svc := New(storage.NewStore(kv), nil).WithClock(func() time.Time { return clock })
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", 5); err != nil {
		t.Fatalf("Record: %v", err)
	}

	clock = start.Add(Window + time.Minute)
	// Pin the day key back to the write day so only the TTL is exercised.
	svc.WithClock(func() time.Time { return start })
	spent, err := svc.Spent(ctx, "user-1")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 0 {
		t.Fatalf("spend after TTL expiry = %v, want 0", spent)
	}
}

func TestRecordRefreshesExpiry(t *testing.T) {
	kv := memory.New()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := start
	kv.WithClock(func() time.Time { return clock })
	svc := New(storage.NewStore(kv), nil).WithClock(func() time.Time { return start })
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", 1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	clock = start.Add(12 * time.Hour)
	if _, err := svc.Record(ctx, "user-1", 1); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// 13h after the first write but only 1h after the second.
	clock = start.Add(13 * time.Hour)
	spent, err := svc.Spent(ctx, "user-1")
	if err != nil {
		t.Fatalf("Spent: %v", err)
	}
	if spent != 2 {
		t.Fatalf("spend = %v, want 2 after expiry refresh", spent)
	}
}
