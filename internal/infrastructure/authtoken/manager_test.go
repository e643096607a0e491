package authtoken

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

func countingSource(calls *int32, token string, ttl time.Duration) Source {
	return SourceFunc(func(ctx context.Context) (*Token, error) {
		atomic.AddInt32(calls, 1)
		// Simulate token endpoint latency so concurrent waiters pile up
		time.Sleep(20 * time.Millisecond)
		return &Token{AccessToken: token, ExpiresAt: time.Now().Add(ttl)}, nil
	})
}

func TestManager_CachesUntilMargin(t *testing.T) {
	var calls int32
	m := NewManager(NewMemoryCache(), WithSafetyMargin(time.Second))
	src := countingSource(&calls, "tok-1", time.Hour)

	for i := 0; i < 5; i++ {
		tok, err := m.AccessToken(context.Background(), "acct-1", src)
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestManager_RefreshesInsideSafetyMargin(t *testing.T) {
	var calls int32
	m := NewManager(NewMemoryCache(), WithSafetyMargin(time.Minute))
	// Token expires in 30s, margin is 60s: always stale
	src := countingSource(&calls, "tok-short", 30*time.Second)

	_, err := m.AccessToken(context.Background(), "acct-1", src)
	require.NoError(t, err)
	_, err = m.AccessToken(context.Background(), "acct-1", src)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestManager_SingleFlightUnderConcurrency(t *testing.T) {
	var calls int32
	m := NewManager(NewMemoryCache(), WithSafetyMargin(time.Second))
	src := countingSource(&calls, "tok-sf", time.Hour)

	const requesters = 25
	var wg sync.WaitGroup
	wg.Add(requesters)
	for i := 0; i < requesters; i++ {
		go func() {
			defer wg.Done()
			tok, err := m.AccessToken(context.Background(), "acct-1", src)
			assert.NoError(t, err)
			assert.Equal(t, "tok-sf", tok)
		}()
	}
	wg.Wait()

	// N concurrent requesters share exactly one token-endpoint call
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestManager_AccountsRefreshIndependently(t *testing.T) {
	var callsA, callsB int32
	m := NewManager(NewMemoryCache())

	_, err := m.AccessToken(context.Background(), "acct-a", countingSource(&callsA, "a", time.Hour))
	require.NoError(t, err)
	_, err = m.AccessToken(context.Background(), "acct-b", countingSource(&callsB, "b", time.Hour))
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt32(&callsA))
	assert.EqualValues(t, 1, atomic.LoadInt32(&callsB))
}

func TestManager_FetchFailureIsAuthError(t *testing.T) {
	m := NewManager(NewMemoryCache())
	src := SourceFunc(func(ctx context.Context) (*Token, error) {
		return nil, errors.New("invalid_client")
	})

	_, err := m.AccessToken(context.Background(), "acct-1", src)

	require.ErrorIs(t, err, integration.ErrProviderAuth)
}

func TestManager_InvalidateForcesRefresh(t *testing.T) {
	var calls int32
	m := NewManager(NewMemoryCache())
	src := countingSource(&calls, "tok", time.Hour)

	_, err := m.AccessToken(context.Background(), "acct-1", src)
	require.NoError(t, err)
	require.NoError(t, m.Invalidate(context.Background(), "acct-1"))
	_, err = m.AccessToken(context.Background(), "acct-1", src)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestMemoryCache_ExpiredTokenIsDropped(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Put(context.Background(), "k", &Token{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}))

	tok, err := c.Get(context.Background(), "k")

	require.NoError(t, err)
	assert.Nil(t, tok)
}
