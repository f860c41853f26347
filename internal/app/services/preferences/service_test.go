package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/services/decision"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/app/storage/memory"
)

func newTestService() *Service {
	return New(storage.NewStore(memory.New()), nil)
}

func TestSetAndGet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	stored, err := svc.Set(ctx, "user-1", preference.Preferences{
		Interests:        []string{"go", "music"},
		MinQualityScore:  0.7,
		PaymentThreshold: 0.2,
		MaxDailyBudget:   5,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if stored.UserID != "user-1" {
		t.Fatalf("user id not stamped: %+v", stored)
	}

	got, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PaymentThreshold != 0.2 || len(got.Interests) != 2 {
		t.Fatalf("unexpected preferences: %+v", got)
	}
}

func TestSetDefaultsPaymentThreshold(t *testing.T) {
	svc := newTestService()

	stored, err := svc.Set(context.Background(), "user-1", preference.Preferences{MaxDailyBudget: 5})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if stored.PaymentThreshold != decision.DefaultPaymentThreshold {
		t.Fatalf("threshold = %v, want default %v", stored.PaymentThreshold, decision.DefaultPaymentThreshold)
	}
}

func TestSetValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []preference.Preferences{
		{MinQualityScore: -0.1},
		{MinQualityScore: 1.1},
		{PaymentThreshold: -1},
		{MaxDailyBudget: -1},
		{MonthlyLimit: -1},
	}
	for _, prefs := range cases {
		if _, err := svc.Set(ctx, "user-1", prefs); err == nil {
			t.Fatalf("expected validation error for %+v", prefs)
		}
	}

	if _, err := svc.Set(ctx, "  ", preference.Preferences{}); err == nil {
		t.Fatalf("expected error for blank user id")
	}
}

func TestSetOverwrites(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Set(ctx, "user-1", preference.Preferences{MaxDailyBudget: 5}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := svc.Set(ctx, "user-1", preference.Preferences{MaxDailyBudget: 9}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := svc.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MaxDailyBudget != 9 {
		t.Fatalf("budget = %v, want 9", got.MaxDailyBudget)
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Get(context.Background(), "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
