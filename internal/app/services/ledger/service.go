// Package ledger tracks cumulative daily spend per user. Counters live in
// the KV store under a per-day key and expire 24 hours after the last
// write, which keeps the budget window rolling without a cleanup job.
package ledger

import (
	"context"
	"time"

	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/pkg/logger"
)

// Window is the counter expiry applied on every write.
const Window = 24 * time.Hour

const dayFormat = "2006-01-02"

// Service reads and advances spend counters.
type Service struct {
	store storage.LedgerStore
	log   *logger.Logger
	now   func() time.Time
}

// New creates a ledger service.
func New(store storage.LedgerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides the time source. Tests use this to cross day
// boundaries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Spent returns the user's cumulative spend for the current day. A missing
// counter reads as zero.
func (s *Service) Spent(ctx context.Context, userID string) (float64, error) {
	return s.store.GetSpend(ctx, userID, s.day())
}

// Record adds delta to today's counter and returns the new total. The
// counter is read-then-written, not atomically incremented: two concurrent
// calls for the same user can read the same total and lose one delta.
func (s *Service) Record(ctx context.Context, userID string, delta float64) (float64, error) {
	day := s.day()
	current, err := s.store.GetSpend(ctx, userID, day)
	if err != nil {
		return 0, err
	}
	total := current + delta
	if err := s.store.PutSpend(ctx, userID, day, total, Window); err != nil {
		return 0, err
	}
	s.log.WithField("user_id", userID).
		WithField("delta", delta).
		WithField("total", total).
		Debug("spend recorded")
	return total, nil
}

func (s *Service) day() string {
	return s.now().Format(dayFormat)
}
