// Package authtoken manages short-lived provider access tokens: it caches
// tokens per provider account, refreshes them ahead of expiry, and coalesces
// concurrent refreshes for the same account into a single upstream call so
// connectors never handle raw credentials or hammer a provider's auth
// endpoint.
package authtoken

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// Token is one issued bearer token with its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Source fetches a fresh token from a provider's token endpoint. Connectors
// supply one bound to their connection's credentials.
type Source interface {
	FetchToken(ctx context.Context) (*Token, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Token, error)

// FetchToken implements Source.
func (f SourceFunc) FetchToken(ctx context.Context) (*Token, error) { return f(ctx) }

// Cache stores tokens keyed by provider account identity. Tokens are
// transient and never reach durable storage.
type Cache interface {
	// Get returns the cached token for the key, or nil when absent
	Get(ctx context.Context, key string) (*Token, error)

	// Put stores a token until its expiry
	Put(ctx context.Context, key string, token *Token) error

	// Delete drops a cached token
	Delete(ctx context.Context, key string) error
}

// Manager hands out valid access tokens. It is the one piece of shared
// mutable state between connector calls; refreshes for the same account are
// serialized through a single-flight group while different accounts proceed
// fully concurrently.
type Manager struct {
	cache  Cache
	margin time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSafetyMargin sets how long before nominal expiry a token is considered
// stale, tolerating clock skew and in-flight request latency.
func WithSafetyMargin(d time.Duration) ManagerOption {
	return func(m *Manager) { m.margin = d }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a token manager over the given cache.
func NewManager(cache Cache, opts ...ManagerOption) *Manager {
	m := &Manager{
		cache:  cache,
		margin: 60 * time.Second,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AccessToken returns a valid token for the account key, refreshing through
// src when the cached one is absent or inside the safety margin. A refresh
// failure surfaces as ErrProviderAuth and is not retried here, so callers can
// distinguish bad credentials from transient trouble.
func (m *Manager) AccessToken(ctx context.Context, key string, src Source) (string, error) {
	cached, err := m.cache.Get(ctx, key)
	if err == nil && cached != nil && m.fresh(cached) {
		return cached.AccessToken, nil
	}

	v, err, shared := m.group.Do(key, func() (any, error) {
		// Re-check inside the flight: another waiter may have refreshed
		// between our cache miss and acquiring the flight.
		if tok, err := m.cache.Get(ctx, key); err == nil && tok != nil && m.fresh(tok) {
			return tok, nil
		}
		tok, err := src.FetchToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrProviderAuth, err)
		}
		if err := m.cache.Put(ctx, key, tok); err != nil {
			// A cache write failure only costs an extra refresh later.
			m.logger.Warn("token cache write failed", zap.String("key", key), zap.Error(err))
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.logger.Debug("token refresh coalesced", zap.String("key", key))
	}
	return v.(*Token).AccessToken, nil
}

// Invalidate drops the cached token for an account, forcing the next call to
// refresh. Used after a provider rejects a token early.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	return m.cache.Delete(ctx, key)
}

func (m *Manager) fresh(tok *Token) bool {
	return time.Until(tok.ExpiresAt) > m.margin
}
