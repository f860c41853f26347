// Package app wires the agent services together and manages their
// lifecycle.
package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/arcpay/platform/internal/app/services/decision"
	ledgersvc "github.com/arcpay/platform/internal/app/services/ledger"
	"github.com/arcpay/platform/internal/app/services/payments"
	"github.com/arcpay/platform/internal/app/services/preferences"
	subscriptionsvc "github.com/arcpay/platform/internal/app/services/subscriptions"
	userssvc "github.com/arcpay/platform/internal/app/services/users"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/app/storage/memory"
	"github.com/arcpay/platform/internal/app/system"
	"github.com/arcpay/platform/internal/scorer"
	"github.com/arcpay/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Preferences   storage.PreferenceStore
	Ledger        storage.LedgerStore
	Subscriptions storage.SubscriptionStore
	Wallets       storage.WalletStore
	Transactions  storage.TransactionStore
	Users         storage.UserStore
}

// NewKVStores builds a Stores value where every aggregate is backed by the
// same KV backend.
func NewKVStores(kv storage.KV) Stores {
	store := storage.NewStore(kv)
	return Stores{
		Preferences:   store,
		Ledger:        store,
		Subscriptions: store,
		Wallets:       store,
		Transactions:  store,
		Users:         store,
	}
}

// Options configures the application's external collaborators and policy
// defaults.
type Options struct {
	Provider         payments.Provider
	Scorer           scorer.Scorer
	AuthSecret       []byte
	PaymentThreshold float64
	SweepSchedule    string
}

// Application ties the agent services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Preferences   *preferences.Service
	Payments      *payments.Service
	Subscriptions *subscriptionsvc.Service
	Users         *userssvc.Service
	Ledger        *ledgersvc.Service
}

// New builds a fully initialised application.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("payment provider is required")
	}

	mem := storage.NewStore(memory.New())
	if stores.Preferences == nil {
		stores.Preferences = mem
	}
	if stores.Ledger == nil {
		stores.Ledger = mem
	}
	if stores.Subscriptions == nil {
		stores.Subscriptions = mem
	}
	if stores.Wallets == nil {
		stores.Wallets = mem
	}
	if stores.Transactions == nil {
		stores.Transactions = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}

	sc := opts.Scorer
	if sc == nil {
		log.Warn("no model scorer configured; using keyword heuristic")
		sc = scorer.Keyword{}
	}

	secret := opts.AuthSecret
	if len(secret) == 0 {
		log.Warn("auth secret not configured; issuing tokens with an ephemeral secret")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
	}

	engine := decision.NewEngine(opts.PaymentThreshold)
	ledgerService := ledgersvc.New(stores.Ledger, log)
	prefService := preferences.New(stores.Preferences, log)
	payService := payments.New(opts.Provider, sc, engine, stores.Preferences, stores.Wallets, stores.Transactions, ledgerService, log)
	subService := subscriptionsvc.New(stores.Subscriptions, payService, log)
	userService, err := userssvc.New(stores.Users, secret, log)
	if err != nil {
		return nil, err
	}

	manager := system.NewManager()
	sweeper := subscriptionsvc.NewSweeper(subService, opts.SweepSchedule, log)
	if err := manager.Register(sweeper); err != nil {
		return nil, fmt.Errorf("register %s: %w", sweeper.Name(), err)
	}

	return &Application{
		manager:       manager,
		log:           log,
		Preferences:   prefService,
		Payments:      payService,
		Subscriptions: subService,
		Users:         userService,
		Ledger:        ledgerService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before
// Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
