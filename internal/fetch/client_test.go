package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsBody(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(Config{UserAgent: "smartmoney/1.0 ops@example.com"}, zerolog.Nop())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, "smartmoney/1.0 ops@example.com", gotAgent)
}

func TestGetAuthErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{}, zerolog.Nop())
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusForbidden, authErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestGetClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{}, zerolog.Nop())
	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "unexpected status 404")
	assert.Equal(t, 1, calls)
}

func TestGetDailyQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(Config{DailyLimit: 2}, zerolog.Nop())
	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	var quotaErr *QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 2, quotaErr.Limit)
}

func TestGetRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := NewClient(Config{}, zerolog.Nop())
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, 2, calls)
}

func TestGetBackoffHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(Config{}, zerolog.Nop())
	start := time.Now()
	_, err := c.Get(ctx, srv.URL)
	require.Error(t, err)
	// The first backoff is 2s; cancellation must cut it short.
	assert.Less(t, time.Since(start), time.Second)
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "17", 17 * time.Second},
		{"zero seconds", "0", 0},
		{"negative", "-5", 0},
		{"past http date", "Mon, 02 Jan 2006 15:04:05 GMT", 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.header))
		})
	}
}

func TestParseRetryAfterFutureDate(t *testing.T) {
	header := time.Now().UTC().Add(30 * time.Second).Format(http.TimeFormat)
	d := parseRetryAfter(header)
	assert.Greater(t, d, 20*time.Second)
	assert.LessOrEqual(t, d, 30*time.Second)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(1, errors.New("server error")))
	assert.Equal(t, 4*time.Second, backoffDelay(2, errors.New("server error")))
	assert.Equal(t, 17*time.Second, backoffDelay(1, &rateLimitError{retryAfter: 17 * time.Second}))
	assert.Equal(t, maxRetryAfterWait, backoffDelay(1, &rateLimitError{retryAfter: 5 * time.Minute}))
}
