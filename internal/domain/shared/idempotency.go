package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers webhook event IDs for a dedupe window so
// provider redeliveries do not apply the same order mutation twice.
type IdempotencyStore interface {
	// MarkProcessed claims an event ID for the given window. True means the
	// caller holds the first delivery; false means a duplicate.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the event ID is inside its window
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close releases the store's resources
	Close() error
}

// IdempotencyConfig controls webhook dedupe behavior
type IdempotencyConfig struct {
	// TTL is the dedupe window; past it the same event ID is treated as new.
	// Providers stop retrying well within a day, so 24h is the default.
	TTL time.Duration

	// Enabled turns dedupe off entirely, for local debugging only
	Enabled bool
}

// DefaultIdempotencyConfig returns the production defaults
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
