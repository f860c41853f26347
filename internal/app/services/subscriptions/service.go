// Package subscriptions manages recurring creator payments. Charges are
// unconditional: a due subscription is paid without consulting the scorer
// or the daily budget.
package subscriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/subscription"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/pkg/logger"
)

// Charger executes a transfer for a synthesized positive decision.
type Charger interface {
	Charge(ctx context.Context, userID string, verdict payment.Decision) (payment.Transaction, error)
}

// Service manages subscription records and their recurring charges.
type Service struct {
	store   storage.SubscriptionStore
	charger Charger
	log     *logger.Logger
	now     func() time.Time
}

// New creates a subscriptions service.
func New(store storage.SubscriptionStore, charger Charger, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("subscriptions")
	}
	return &Service{
		store:   store,
		charger: charger,
		log:     log,
		now:     time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create stores a new active subscription and attempts the first charge
// immediately. A failed first charge does not deactivate the subscription;
// it is logged and the sweeper retries when the subscription comes due.
func (s *Service) Create(ctx context.Context, userID, creatorAddress string, amount float64) (subscription.Subscription, error) {
	userID = strings.TrimSpace(userID)
	creatorAddress = strings.TrimSpace(creatorAddress)
	if userID == "" {
		return subscription.Subscription{}, fmt.Errorf("user id is required")
	}
	if creatorAddress == "" {
		return subscription.Subscription{}, fmt.Errorf("creator address is required")
	}
	if amount <= 0 {
		return subscription.Subscription{}, fmt.Errorf("amount must be positive")
	}

	now := s.now().UTC()
	sub, err := s.store.CreateSubscription(ctx, subscription.Subscription{
		UserID:          userID,
		CreatorAddress:  creatorAddress,
		Amount:          amount,
		Active:          true,
		NextPaymentDate: now.Add(subscription.Period),
		LastPaymentDate: now,
		CreatedAt:       now,
	})
	if err != nil {
		return subscription.Subscription{}, err
	}
	s.log.WithField("subscription_id", sub.ID).
		WithField("user_id", userID).
		WithField("creator", creatorAddress).
		Info("subscription created")

	charged, err := s.ChargeSubscription(ctx, userID, sub.ID)
	if err != nil {
		s.log.WithError(err).
			WithField("subscription_id", sub.ID).
			Warn("first subscription payment failed")
		return sub, nil
	}
	return charged, nil
}

// ChargeSubscription pays one period and advances the schedule. The next
// payment date is set 30 days from the charge time, not from the previous
// due date, so delayed charges shift the schedule.
func (s *Service) ChargeSubscription(ctx context.Context, userID, id string) (subscription.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if !sub.Active {
		return subscription.Subscription{}, fmt.Errorf("subscription %s is not active", id)
	}

	verdict := payment.Decision{
		ShouldPay:       true,
		Amount:          sub.Amount,
		Reason:          payment.ReasonSubscription,
		ConfidenceScore: 1.0,
		ContentID:       "sub-" + sub.ID,
		CreatorAddress:  sub.CreatorAddress,
	}
	if _, err := s.charger.Charge(ctx, sub.UserID, verdict); err != nil {
		return subscription.Subscription{}, fmt.Errorf("charge subscription %s: %w", id, err)
	}

	now := s.now().UTC()
	sub.LastPaymentDate = now
	sub.NextPaymentDate = now.Add(subscription.Period)
	return s.store.UpdateSubscription(ctx, sub)
}

// Cancel deactivates a subscription. The record is kept.
func (s *Service) Cancel(ctx context.Context, userID, id string) (subscription.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if !sub.Active {
		return sub, nil
	}
	now := s.now().UTC()
	sub.Active = false
	sub.CancelledAt = &now
	sub, err = s.store.UpdateSubscription(ctx, sub)
	if err != nil {
		return subscription.Subscription{}, err
	}
	s.log.WithField("subscription_id", id).Info("subscription cancelled")
	return sub, nil
}

// Reactivate re-enables a cancelled subscription with a fresh period.
func (s *Service) Reactivate(ctx context.Context, userID, id string) (subscription.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return subscription.Subscription{}, err
	}
	if sub.Active {
		return sub, nil
	}
	sub.Active = true
	sub.CancelledAt = nil
	sub.NextPaymentDate = s.now().UTC().Add(subscription.Period)
	sub, err = s.store.UpdateSubscription(ctx, sub)
	if err != nil {
		return subscription.Subscription{}, err
	}
	s.log.WithField("subscription_id", id).Info("subscription reactivated")
	return sub, nil
}

// List returns the user's subscriptions.
func (s *Service) List(ctx context.Context, userID string) ([]subscription.Subscription, error) {
	return s.store.ListSubscriptions(ctx, userID)
}

// ListAll returns every stored subscription across users.
func (s *Service) ListAll(ctx context.Context) ([]subscription.Subscription, error) {
	return s.store.ListAllSubscriptions(ctx)
}

// SweepDue charges every due active subscription. Subscriptions are
// processed sequentially; a failure is logged and the sweep continues with
// the next one. Returns the number of successful charges.
func (s *Service) SweepDue(ctx context.Context) int {
	subs, err := s.store.ListAllSubscriptions(ctx)
	if err != nil {
		s.log.WithError(err).Warn("list subscriptions failed")
		return 0
	}

	now := s.now()
	charged := 0
	for _, sub := range subs {
		if !sub.Due(now) {
			continue
		}
		if _, err := s.ChargeSubscription(ctx, sub.UserID, sub.ID); err != nil {
			s.log.WithError(err).
				WithField("subscription_id", sub.ID).
				Warn("due subscription charge failed")
			continue
		}
		charged++
	}
	if charged > 0 {
		s.log.WithField("charged", charged).Info("subscription sweep completed")
	}
	return charged
}
