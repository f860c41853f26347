package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arcpay/platform/internal/app/domain/payment"
	"github.com/arcpay/platform/internal/app/domain/preference"
	"github.com/arcpay/platform/internal/app/domain/subscription"
	"github.com/arcpay/platform/internal/app/domain/user"
)

// Key prefixes. The layout is flat on purpose: every record type is a JSON
// document under a typed prefix, so any KV backend with prefix listing works.
const (
	prefixPreferences  = "prefs:"
	prefixSpend        = "spend:"
	prefixSubscription = "sub:"
	prefixWallet       = "wallet:"
	prefixTransaction  = "tx:"
	prefixUser         = "user:"
)

// Store implements the aggregate store interfaces over a KV backend.
type Store struct {
	kv KV
}

var _ PreferenceStore = (*Store)(nil)
var _ LedgerStore = (*Store)(nil)
var _ SubscriptionStore = (*Store)(nil)
var _ WalletStore = (*Store)(nil)
var _ TransactionStore = (*Store)(nil)
var _ UserStore = (*Store)(nil)

// NewStore wraps a KV backend in the typed store interfaces.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// PreferenceStore implementation ----------------------------------------------

func (s *Store) PutPreferences(ctx context.Context, prefs preference.Preferences) (preference.Preferences, error) {
	if prefs.UserID == "" {
		return preference.Preferences{}, fmt.Errorf("user id is required")
	}
	prefs.UpdatedAt = time.Now().UTC()
	if err := s.putJSON(ctx, prefixPreferences+prefs.UserID, prefs, 0); err != nil {
		return preference.Preferences{}, err
	}
	return prefs, nil
}

func (s *Store) GetPreferences(ctx context.Context, userID string) (preference.Preferences, error) {
	var prefs preference.Preferences
	if err := s.getJSON(ctx, prefixPreferences+userID, &prefs); err != nil {
		return preference.Preferences{}, err
	}
	return prefs, nil
}

// LedgerStore implementation --------------------------------------------------

func (s *Store) GetSpend(ctx context.Context, userID, day string) (float64, error) {
	raw, ok, err := s.kv.Get(ctx, spendKey(userID, day))
	if err != nil {
		return 0, fmt.Errorf("read spend counter: %w", err)
	}
	if !ok {
		return 0, nil
	}
	total, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse spend counter: %w", err)
	}
	return total, nil
}

func (s *Store) PutSpend(ctx context.Context, userID, day string, total float64, ttl time.Duration) error {
	value := strconv.FormatFloat(total, 'f', -1, 64)
	if err := s.kv.Put(ctx, spendKey(userID, day), []byte(value), ttl); err != nil {
		return fmt.Errorf("write spend counter: %w", err)
	}
	return nil
}

func spendKey(userID, day string) string {
	return prefixSpend + userID + ":" + day
}

// SubscriptionStore implementation --------------------------------------------

func (s *Store) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	if sub.UserID == "" {
		return subscription.Subscription{}, fmt.Errorf("user id is required")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if err := s.putJSON(ctx, subscriptionKey(sub.UserID, sub.ID), sub, 0); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	key := subscriptionKey(sub.UserID, sub.ID)
	var existing subscription.Subscription
	if err := s.getJSON(ctx, key, &existing); err != nil {
		return subscription.Subscription{}, err
	}
	sub.CreatedAt = existing.CreatedAt
	if err := s.putJSON(ctx, key, sub, 0); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) GetSubscription(ctx context.Context, userID, id string) (subscription.Subscription, error) {
	var sub subscription.Subscription
	if err := s.getJSON(ctx, subscriptionKey(userID, id), &sub); err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]subscription.Subscription, error) {
	return s.listSubscriptions(ctx, prefixSubscription+userID+":")
}

func (s *Store) ListAllSubscriptions(ctx context.Context) ([]subscription.Subscription, error) {
	return s.listSubscriptions(ctx, prefixSubscription)
}

func (s *Store) listSubscriptions(ctx context.Context, prefix string) ([]subscription.Subscription, error) {
	keys, err := s.kv.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	subs := make([]subscription.Subscription, 0, len(keys))
	for _, key := range keys {
		var sub subscription.Subscription
		if err := s.getJSON(ctx, key, &sub); err != nil {
			if err == ErrNotFound {
				// Expired between list and get.
				continue
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func subscriptionKey(userID, id string) string {
	return prefixSubscription + userID + ":" + id
}

// WalletStore implementation --------------------------------------------------

func (s *Store) PutWallet(ctx context.Context, w payment.Wallet) error {
	if w.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	return s.putJSON(ctx, prefixWallet+w.UserID, w, 0)
}

func (s *Store) GetWallet(ctx context.Context, userID string) (payment.Wallet, error) {
	var w payment.Wallet
	if err := s.getJSON(ctx, prefixWallet+userID, &w); err != nil {
		return payment.Wallet{}, err
	}
	return w, nil
}

// TransactionStore implementation ---------------------------------------------

func (s *Store) CreateTransaction(ctx context.Context, tx payment.Transaction) error {
	if tx.TxHash == "" {
		return fmt.Errorf("tx hash is required")
	}
	return s.putJSON(ctx, prefixTransaction+tx.UserID+":"+tx.TxHash, tx, 0)
}

func (s *Store) ListTransactions(ctx context.Context, userID string) ([]payment.Transaction, error) {
	keys, err := s.kv.List(ctx, prefixTransaction+userID+":")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]payment.Transaction, 0, len(keys))
	for _, key := range keys {
		var tx payment.Transaction
		if err := s.getJSON(ctx, key, &tx); err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		txs = append(txs, tx)
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	return txs, nil
}

// UserStore implementation ----------------------------------------------------

// userRecord is the persisted form of a user. The API model excludes the
// password hash from serialization, so records carry it explicitly.
type userRecord struct {
	user.User
	PasswordHash string `json:"passwordHash"`
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.Email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	key := prefixUser + u.Email
	if _, ok, err := s.kv.Get(ctx, key); err != nil {
		return user.User{}, fmt.Errorf("read user: %w", err)
	} else if ok {
		return user.User{}, fmt.Errorf("user %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := s.putJSON(ctx, key, userRecord{User: u, PasswordHash: u.PasswordHash}, 0); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var rec userRecord
	if err := s.getJSON(ctx, prefixUser+email, &rec); err != nil {
		return user.User{}, err
	}
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	return u, nil
}

// JSON helpers ----------------------------------------------------------------

func (s *Store) putJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst interface{}) error {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
