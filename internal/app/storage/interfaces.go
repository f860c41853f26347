// Package storage defines the persistence contracts for the agent platform
// and a key-value backed implementation of them. Backends only need to
// provide the small KV surface; everything else is marshaling and key
// layout handled here.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/domain/subscription"
	"github.com/arcpay/platform/internal/app/domain/user"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// KV is the minimal key-value surface required from a storage backend:
// get, put with optional expiry, and key listing by prefix.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// PreferenceStore persists user payment preferences.
type PreferenceStore interface {
	PutPreferences(ctx context.Context, prefs preference.Preferences) (preference.Preferences, error)
	GetPreferences(ctx context.Context, userID string) (preference.Preferences, error)
}

// LedgerStore persists daily spend counters. Totals expire with the given
// TTL; a missing counter reads as zero.
type LedgerStore interface {
	GetSpend(ctx context.Context, userID, day string) (float64, error)
	PutSpend(ctx context.Context, userID, day string, total float64, ttl time.Duration) error
}

// SubscriptionStore persists subscription records.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error)
	GetSubscription(ctx context.Context, userID, id string) (subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, userID string) ([]subscription.Subscription, error)
	ListAllSubscriptions(ctx context.Context) ([]subscription.Subscription, error)
}

// WalletStore caches provider wallets per user.
type WalletStore interface {
	PutWallet(ctx context.Context, w payment.Wallet) error
	GetWallet(ctx context.Context, userID string) (payment.Wallet, error)
}

// TransactionStore persists executed transfer records.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx payment.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]payment.Transaction, error)
}

// UserStore persists registered users, addressed by email.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}
