package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
	"golang.org/x/time/rate"
)

const DefaultMaxPause = 10 * time.Second

type ThrottledError struct {
	Bucket     string
	RetryAfter time.Duration
	Cause      error
}

func (e ThrottledError) Error() string {
	message := fmt.Sprintf("ratelimit: bucket %q throttled", strings.TrimSpace(e.Bucket))
	if e.RetryAfter > 0 {
		message += fmt.Sprintf(" for %s", e.RetryAfter)
	}
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e ThrottledError) Unwrap() error {
	return e.Cause
}

func (e ThrottledError) ToKickError() *goerrors.Error {
	metadata := map[string]any{"bucket": strings.TrimSpace(e.Bucket)}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	err := goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ErrorTooManyRequests).
		WithMetadata(metadata)
	err.Source = e.Cause
	return err
}

// TokenBucket throttles outbound calls with a token bucket and pauses after
// the API answers 429 with a Retry-After hint.
type TokenBucket struct {
	Name     string
	Now      func() time.Time
	MaxPause time.Duration

	limiter *rate.Limiter

	mu             sync.Mutex
	throttledUntil time.Time
}

// NewTokenBucket builds a bucket from cfg; a zero rate leaves the bucket
// unlimited while still honoring Retry-After pauses.
func NewTokenBucket(cfg core.RateLimitConfig) *TokenBucket {
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		if burst <= 0 {
			burst = int(cfg.RequestsPerSecond)
		}
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		Name:     "kick-api",
		Now:      time.Now,
		MaxPause: DefaultMaxPause,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

func (b *TokenBucket) Wait(ctx context.Context) error {
	if b == nil || b.limiter == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if pause := b.pause(); pause > 0 {
		if pause > b.maxPause() {
			return ThrottledError{Bucket: b.Name, RetryAfter: pause}.ToKickError()
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ThrottledError{Bucket: b.Name, RetryAfter: pause, Cause: ctx.Err()}.ToKickError()
		case <-timer.C:
		}
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return ThrottledError{Bucket: b.Name, Cause: err}.ToKickError()
	}
	return nil
}

// Observe records the Retry-After hint of a 429 response.
func (b *TokenBucket) Observe(res core.TransportResponse) {
	if b == nil || res.StatusCode != http.StatusTooManyRequests {
		return
	}
	now := b.now()
	delay, ok := parseRetryAfter(res.Headers, now)
	if !ok {
		return
	}
	until := now.Add(delay)
	b.mu.Lock()
	defer b.mu.Unlock()
	if until.After(b.throttledUntil) {
		b.throttledUntil = until
	}
}

func (b *TokenBucket) pause() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.throttledUntil.IsZero() {
		return 0
	}
	remaining := b.throttledUntil.Sub(b.now())
	if remaining <= 0 {
		b.throttledUntil = time.Time{}
		return 0
	}
	return remaining
}

func (b *TokenBucket) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *TokenBucket) maxPause() time.Duration {
	if b.MaxPause > 0 {
		return b.MaxPause
	}
	return DefaultMaxPause
}

func parseRetryAfter(headers map[string]string, now time.Time) (time.Duration, bool) {
	raw := headerValue(headers, "retry-after")
	if raw == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if retryAt, err := http.ParseTime(raw); err == nil && retryAt.After(now) {
		return retryAt.Sub(now), true
	}
	return 0, false
}

func headerValue(headers map[string]string, key string) string {
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var (
	_ core.Limiter          = (*TokenBucket)(nil)
	_ core.ResponseObserver = (*TokenBucket)(nil)
)
