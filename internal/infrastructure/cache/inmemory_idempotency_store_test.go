package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_FirstDeliveryWins(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "shopify:orders/create:evt-1001", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	// Providers redeliver on timeout; the retry must be recognized
	retry, err := store.MarkProcessed(ctx, "shopify:orders/create:evt-1001", time.Hour)
	require.NoError(t, err)
	assert.False(t, retry)
}

func TestInMemoryIdempotencyStore_DistinctEventsIndependent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "woocommerce:order.updated:evt-7", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	other, err := store.MarkProcessed(ctx, "woocommerce:order.updated:evt-8", time.Hour)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	seen, err := store.IsProcessed(ctx, "evt-unseen")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkProcessed(ctx, "evt-seen", time.Hour)
	require.NoError(t, err)

	seen, err = store.IsProcessed(ctx, "evt-seen")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_ExpiredEntryReplayable(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "evt-short", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	seen, err := store.IsProcessed(ctx, "evt-short")
	require.NoError(t, err)
	assert.False(t, seen)

	// After the dedupe window closes the event counts as new again
	first, err := store.MarkProcessed(ctx, "evt-short", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestInMemoryIdempotencyStore_ConcurrentDeliveriesSingleWinner(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const deliveries = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := store.MarkProcessed(ctx, "fedex:shipment.delivered:evt-42", time.Hour)
			assert.NoError(t, err)
			if first {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestInMemoryIdempotencyStore_CleanupRemovesExpired(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("evt-stale-%d", i), time.Millisecond)
		require.NoError(t, err)
	}
	_, err := store.MarkProcessed(ctx, "evt-live", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 6, store.Size())

	time.Sleep(10 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
