package integration

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

var (
	// ErrProviderAuth indicates bad or expired credentials beyond refresh.
	// Surfaced to an operator, never retried automatically.
	ErrProviderAuth = errors.New("integration: provider authentication failed")
	// ErrProviderRequest indicates malformed input to the provider (a caller
	// bug, 4xx other than 429). Not retried.
	ErrProviderRequest = errors.New("integration: provider rejected request")
	// ErrProviderUnavailable indicates a timeout or 5xx. Retryable with backoff.
	ErrProviderUnavailable = errors.New("integration: provider temporarily unavailable")
	// ErrProviderRateLimited indicates a 429. Retryable after the
	// provider-specified delay; see RateLimitError for the delay itself.
	ErrProviderRateLimited = errors.New("integration: provider rate limited")
	// ErrSyncConflict indicates an attempted backward order status transition.
	// Logged and dropped by the sync engine, never user-facing.
	ErrSyncConflict = errors.New("integration: conflicting order status transition")
	// ErrWebhookSignature indicates an inbound webhook that failed
	// authenticity verification. The request is rejected before any payload
	// is trusted.
	ErrWebhookSignature = errors.New("integration: invalid webhook signature")
	// ErrConnectionNotFound indicates an unknown provider connection.
	ErrConnectionNotFound = errors.New("integration: provider connection not found")
	// ErrProviderNotRegistered indicates a provider code with no registered
	// connector factory.
	ErrProviderNotRegistered = errors.New("integration: provider not registered")
	// ErrOrderNotFound indicates a sync action referencing an order the
	// engine has never seen.
	ErrOrderNotFound = errors.New("integration: synced order not found")
)

// RateLimitError wraps ErrProviderRateLimited with the delay the provider
// asked for (Retry-After). A zero RetryAfter means the provider gave none.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("integration: provider rate limited, retry after %s", e.RetryAfter)
	}
	return ErrProviderRateLimited.Error()
}

// Unwrap makes errors.Is(err, ErrProviderRateLimited) hold.
func (e *RateLimitError) Unwrap() error {
	return ErrProviderRateLimited
}

// MappingError indicates a provider status or value reached code that assumed
// an exhaustive mapping table. This is a defect in the connector's table, not
// a runtime retry target.
type MappingError struct {
	Provider ProviderCode
	Kind     string // what was being mapped, e.g. "tracking status"
	Value    string // the unmapped provider value
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	return fmt.Sprintf("integration: %s: unmapped %s %q", e.Provider, e.Kind, e.Value)
}

// NewMappingError creates a MappingError for an unmapped provider value.
func NewMappingError(provider ProviderCode, kind, value string) *MappingError {
	return &MappingError{Provider: provider, Kind: kind, Value: value}
}

// IsRetryable reports whether an error from a connector call is safe to retry
// with backoff: timeouts, 5xx and rate limits are; auth and validation
// failures are not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderRateLimited)
}
