package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/app/storage/memory"
)

func TestSweeperStartStop(t *testing.T) {
	svc := New(storage.NewStore(memory.New()), &fakeCharger{}, nil)
	sweeper := NewSweeper(svc, "@every 1h", nil)
	ctx := context.Background()

	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Start is idempotent while running.
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sweeper.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := sweeper.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	svc := New(storage.NewStore(memory.New()), &fakeCharger{}, nil)
	sweeper := NewSweeper(svc, "every day at noon", nil)

	if err := sweeper.Start(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestSweeperDefaultSchedule(t *testing.T) {
	svc := New(storage.NewStore(memory.New()), &fakeCharger{}, nil)
	sweeper := NewSweeper(svc, "", nil)
	if sweeper.schedule != DefaultSchedule {
		t.Fatalf("schedule = %q, want %q", sweeper.schedule, DefaultSchedule)
	}
}
