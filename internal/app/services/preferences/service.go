// Package preferences manages user payment preferences.
package preferences

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/services/decision"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/pkg/logger"
)

// Service validates and persists preferences.
type Service struct {
	store storage.PreferenceStore
	log   *logger.Logger
}

// New creates a preferences service.
func New(store storage.PreferenceStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("preferences")
	}
	return &Service{store: store, log: log}
}

// Set validates and stores the user's preferences, overwriting any previous
// record. Unset thresholds receive defaults.
func (s *Service) Set(ctx context.Context, userID string, prefs preference.Preferences) (preference.Preferences, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return preference.Preferences{}, fmt.Errorf("user id is required")
	}
	if prefs.MinQualityScore < 0 || prefs.MinQualityScore > 1 {
		return preference.Preferences{}, fmt.Errorf("minimum quality score must be in [0,1]")
	}
	if prefs.PaymentThreshold < 0 {
		return preference.Preferences{}, fmt.Errorf("payment threshold cannot be negative")
	}
	if prefs.MaxDailyBudget < 0 {
		return preference.Preferences{}, fmt.Errorf("max daily budget cannot be negative")
	}
	if prefs.MonthlyLimit < 0 {
		return preference.Preferences{}, fmt.Errorf("monthly limit cannot be negative")
	}
	if prefs.PaymentThreshold == 0 {
		prefs.PaymentThreshold = decision.DefaultPaymentThreshold
	}

	prefs.UserID = userID
	stored, err := s.store.PutPreferences(ctx, prefs)
	if err != nil {
		return preference.Preferences{}, err
	}
	s.log.WithField("user_id", userID).
		WithField("max_daily_budget", stored.MaxDailyBudget).
		Info("preferences saved")
	return stored, nil
}

// Get fetches the user's preferences. Returns storage.ErrNotFound when the
// user has never written any.
func (s *Service) Get(ctx context.Context, userID string) (preference.Preferences, error) {
	return s.store.GetPreferences(ctx, userID)
}
