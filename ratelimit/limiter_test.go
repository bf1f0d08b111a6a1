package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

func TestThrottledError_ToKickError(t *testing.T) {
	mapped := ThrottledError{Bucket: "kick-api", RetryAfter: 3 * time.Second}.ToKickError()
	if mapped.TextCode != core.ErrorTooManyRequests {
		t.Fatalf("expected %q text code, got %q", core.ErrorTooManyRequests, mapped.TextCode)
	}
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status code 429, got %d", mapped.Code)
	}
	if mapped.Metadata["retry_after_ms"] != int64(3000) {
		t.Fatalf("expected retry_after_ms metadata, got %#v", mapped.Metadata)
	}
}

func TestTokenBucket_UnlimitedByDefault(t *testing.T) {
	bucket := NewTokenBucket(core.RateLimitConfig{})
	for i := 0; i < 50; i++ {
		if err := bucket.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
}

func TestTokenBucket_ContextDeadlineIsThrottled(t *testing.T) {
	bucket := NewTokenBucket(core.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	if err := bucket.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := bucket.Wait(ctx)
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ErrorTooManyRequests {
		t.Fatalf("expected throttled error, got %v", err)
	}
}

func TestTokenBucket_ObserveRetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	bucket := NewTokenBucket(core.RateLimitConfig{})
	bucket.Now = func() time.Time { return now }
	bucket.MaxPause = time.Second

	bucket.Observe(core.TransportResponse{StatusCode: http.StatusOK, Headers: map[string]string{"Retry-After": "30"}})
	if pause := bucket.pause(); pause != 0 {
		t.Fatalf("expected non-429 responses to be ignored, got %s", pause)
	}

	bucket.Observe(core.TransportResponse{StatusCode: http.StatusTooManyRequests, Headers: map[string]string{"Retry-After": "30"}})
	if pause := bucket.pause(); pause != 30*time.Second {
		t.Fatalf("expected 30s pause, got %s", pause)
	}

	err := bucket.Wait(context.Background())
	if !core.IsTooManyRequests(err) {
		t.Fatalf("expected pause beyond max to fail fast, got %v", err)
	}

	now = now.Add(31 * time.Second)
	if err := bucket.Wait(context.Background()); err != nil {
		t.Fatalf("expected pause to expire, got %v", err)
	}
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	delay, ok := parseRetryAfter(map[string]string{"retry-after": now.Add(5 * time.Second).Format(http.TimeFormat)}, now)
	if !ok || delay != 5*time.Second {
		t.Fatalf("expected 5s delay, got %s ok=%v", delay, ok)
	}
}
