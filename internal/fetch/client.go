// Package fetch provides the shared rate-limited HTTP client used by data
// source fetchers. Providers enforce per-minute and daily quotas; the client
// makes staying inside them the default.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 30 * time.Second
	maxAttempts       = 3
	backoffBase       = 2 * time.Second
	maxRetryAfterWait = 60 * time.Second
)

// AuthError marks a 401/403 response. Auth failures are never retried; the
// credential is wrong, not the timing.
type AuthError struct {
	StatusCode int
	URL        string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d) for %s", e.StatusCode, e.URL)
}

// QuotaError marks a request rejected by the local daily counter before it
// was sent.
type QuotaError struct {
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("daily request quota of %d exhausted", e.Limit)
}

// Config tunes a client for one provider.
type Config struct {
	// RequestsPerMinute bounds the steady request rate. Zero disables the
	// limiter.
	RequestsPerMinute int
	// DailyLimit bounds total requests per UTC day. Zero disables the counter.
	DailyLimit int
	// Timeout is the per-request hard deadline (30s when zero).
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
}

// Client is a rate-limited HTTP client with retry and backoff.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       zerolog.Logger

	mu         sync.Mutex
	dailyLimit int
	dailyUsed  int
	dailyDay   string
}

// NewClient builds a client from config.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		limiter:    limiter,
		userAgent:  cfg.UserAgent,
		dailyLimit: cfg.DailyLimit,
		log:        log.With().Str("component", "fetch").Logger(),
	}
}

// Get fetches a URL and returns the response body. Retries up to 3 times on
// 429 and 5xx with exponential backoff, honoring Retry-After on 429. 401 and
// 403 surface immediately as AuthError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoffDelay(attempt, lastErr)); err != nil {
				return nil, err
			}
		}
		body, retryable, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		c.log.Warn().Str("url", url).Int("attempt", attempt+1).Err(err).Msg("Retrying request")
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

// do performs one attempt. The bool reports whether the failure is retryable.
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	if err := c.consumeQuota(); err != nil {
		return nil, false, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("failed to read response body: %w", err)
		}
		return body, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, &AuthError{StatusCode: resp.StatusCode, URL: url}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, &rateLimitError{retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error %d from %s", resp.StatusCode, url)
	default:
		return nil, false, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
}

type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.retryAfter)
}

// consumeQuota increments the daily counter, resetting it at the UTC day
// boundary.
func (c *Client) consumeQuota() error {
	if c.dailyLimit <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	today := time.Now().UTC().Format("2006-01-02")
	if c.dailyDay != today {
		c.dailyDay = today
		c.dailyUsed = 0
	}
	if c.dailyUsed >= c.dailyLimit {
		return &QuotaError{Limit: c.dailyLimit}
	}
	c.dailyUsed++
	return nil
}

// backoffDelay returns the wait before the given retry attempt: the server's
// Retry-After when present (capped), exponential otherwise.
func backoffDelay(attempt int, lastErr error) time.Duration {
	if rle, ok := lastErr.(*rateLimitError); ok && rle.retryAfter > 0 {
		if rle.retryAfter > maxRetryAfterWait {
			return maxRetryAfterWait
		}
		return rle.retryAfter
	}
	return time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
