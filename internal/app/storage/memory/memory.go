// Package memory provides an in-memory KV backend. It is safe for
// concurrent use and is primarily intended for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arcpay/platform/internal/app/storage"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// KV is an in-memory implementation of storage.KV with TTL support.
// Expired entries are dropped lazily on read.
type KV struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

var _ storage.KV = (*KV)(nil)

// New creates an empty in-memory KV.
func New() *KV {
	return &KV{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use this to exercise expiry.
func (m *KV) WithClock(now func() time.Time) *KV {
	m.now = now
	return m
}

func (m *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.expired(e) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *KV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *KV) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for key, e := range m.entries {
		if strings.HasPrefix(key, prefix) && !m.expired(e) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

func (m *KV) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}
