package subscriptions

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arcpay/platform/internal/app/system"
	"github.com/arcpay/platform/pkg/logger"
)

// DefaultSchedule runs the sweep at the top of every hour.
const DefaultSchedule = "0 * * * *"

var _ system.Service = (*Sweeper)(nil)

// Sweeper periodically charges due subscriptions on a cron schedule.
type Sweeper struct {
	service  *Service
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewSweeper creates a lifecycle-managed subscription sweeper.
func NewSweeper(service *Service, schedule string, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("subscription-sweeper")
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Sweeper{
		service:  service,
		schedule: schedule,
		log:      log,
	}
}

func (w *Sweeper) Name() string { return "subscription-sweeper" }

func (w *Sweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() {
		w.sweep(runCtx)
	}); err != nil {
		cancel()
		return err
	}
	c.Start()

	w.cron = c
	w.cancel = cancel
	w.running = true
	w.log.WithField("schedule", w.schedule).Info("subscription sweeper started")
	return nil
}

func (w *Sweeper) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	c := w.cron
	cancel := w.cancel
	w.cron = nil
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	w.log.Info("subscription sweeper stopped")
	return nil
}

func (w *Sweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	w.service.SweepDue(ctx)
}
