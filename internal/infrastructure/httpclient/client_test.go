package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

func getBuilder(url string) RequestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(WithMaxRetries(5))
	resp, err := c.Do(context.Background(), getBuilder(srv.URL))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryAuthFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(WithMaxRetries(5))
	_, err := c.Do(context.Background(), getBuilder(srv.URL))

	require.ErrorIs(t, err, integration.ErrProviderAuth)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryValidationFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(WithMaxRetries(5))
	_, err := c.Do(context.Background(), getBuilder(srv.URL))

	require.ErrorIs(t, err, integration.ErrProviderRequest)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_DoOnceNeverRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c := New(WithMaxRetries(5))
	_, err := c.DoOnce(context.Background(), getBuilder(srv.URL))

	require.ErrorIs(t, err, integration.ErrProviderUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_HonorsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(WithMaxRetries(5))
	start := time.Now()
	_, err := c.Do(ctx, getBuilder(srv.URL))

	require.Error(t, err)
	assert.Less(t, time.Since(start), 450*time.Millisecond, "call must not outlive its deadline")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected error
	}{
		{"200 is nil", http.StatusOK, nil},
		{"401 is auth", http.StatusUnauthorized, integration.ErrProviderAuth},
		{"403 is auth", http.StatusForbidden, integration.ErrProviderAuth},
		{"400 is request", http.StatusBadRequest, integration.ErrProviderRequest},
		{"429 is rate limited", http.StatusTooManyRequests, integration.ErrProviderRateLimited},
		{"500 is unavailable", http.StatusInternalServerError, integration.ErrProviderUnavailable},
		{"503 is unavailable", http.StatusServiceUnavailable, integration.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(&Response{StatusCode: tt.status, Header: http.Header{}})
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

func TestClassify_RateLimitCarriesRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")

	err := Classify(&Response{StatusCode: http.StatusTooManyRequests, Header: h})

	var rl *integration.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
}

func TestParseRetryAfter(t *testing.T) {
	t.Run("delta seconds", func(t *testing.T) {
		assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	})

	t.Run("http date", func(t *testing.T) {
		wait := parseRetryAfter(time.Now().Add(45 * time.Second).UTC().Format(http.TimeFormat))
		// http.TimeFormat has second granularity, so allow a little slack
		assert.Greater(t, wait, 40*time.Second)
		assert.LessOrEqual(t, wait, 45*time.Second)
	})

	t.Run("http date in the past", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), parseRetryAfter(time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)))
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
		assert.Equal(t, time.Duration(0), parseRetryAfter("-5"))
		assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	})
}
