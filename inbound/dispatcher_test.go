package inbound

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

func TestDispatcher_VerifiesAndDedupesByMessageID(t *testing.T) {
	store := NewInMemoryClaimStore()
	store.Now = func() time.Time {
		return time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	}
	handler := &stubEventHandler{}
	dispatcher := NewDispatcher(stubVerifier{event: followEvent("msg-1")}, store, handler)

	first, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if err != nil {
		t.Fatalf("dispatch first delivery: %v", err)
	}
	if !first.Accepted || first.StatusCode != http.StatusOK {
		t.Fatalf("expected first delivery accepted, got %#v", first)
	}
	if handler.calls != 1 {
		t.Fatalf("expected handler to be called once")
	}
	if handler.last.MessageID != "msg-1" || handler.last.Type != core.EventChannelFollowed {
		t.Fatalf("unexpected event %#v", handler.last)
	}

	second, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if err != nil {
		t.Fatalf("dispatch redelivery: %v", err)
	}
	if second.Metadata["deduped"] != true || second.StatusCode != http.StatusOK {
		t.Fatalf("expected deduped acknowledgement, got %#v", second)
	}
	if handler.calls != 1 {
		t.Fatalf("expected handler call count unchanged for redelivery")
	}
}

func TestDispatcher_DedupWindowExpiresByKeyTTL(t *testing.T) {
	store := NewInMemoryClaimStore()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	handler := &stubEventHandler{}
	dispatcher := NewDispatcher(stubVerifier{event: followEvent("ttl")}, store, handler)
	dispatcher.KeyTTL = time.Minute

	for range 2 {
		if _, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	if handler.calls != 1 {
		t.Fatalf("expected duplicate suppression before ttl expiry, got %d", handler.calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{}); err != nil {
		t.Fatalf("dispatch after ttl expiry: %v", err)
	}
	if handler.calls != 2 {
		t.Fatalf("expected handler to run again after ttl expiry, got %d", handler.calls)
	}
}

func TestDispatcher_HandlerFailureIsRetryable(t *testing.T) {
	store := NewInMemoryClaimStore()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }
	handler := &stubEventHandler{
		err: goerrors.New("handler failed", goerrors.CategoryOperation).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorHandlerFailed),
	}
	dispatcher := NewDispatcher(stubVerifier{event: followEvent("retry-me")}, store, handler)

	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if !core.IsKind(err, core.ErrorHandlerFailed) {
		t.Fatalf("expected handler failure to bubble, got %v", err)
	}
	if result.StatusCode != http.StatusInternalServerError || result.Accepted {
		t.Fatalf("expected 500 result, got %#v", result)
	}

	handler.err = nil
	now = now.Add(time.Second)
	result, err = dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if err != nil {
		t.Fatalf("expected redelivery to succeed: %v", err)
	}
	if !result.Accepted || handler.calls != 2 {
		t.Fatalf("expected handler to run again, got %d calls", handler.calls)
	}
	if attempts := store.Attempts(ClaimKey(followEvent("retry-me"))); attempts != 2 {
		t.Fatalf("expected two claim attempts, got %d", attempts)
	}
}

func TestDispatcher_InvalidEventKeepsClaim(t *testing.T) {
	store := NewInMemoryClaimStore()
	handler := &stubEventHandler{
		err: goerrors.New("malformed", goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorInvalidEvent),
	}
	dispatcher := NewDispatcher(stubVerifier{event: followEvent("bad")}, store, handler)

	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if !core.IsKind(err, core.ErrorInvalidEvent) || result.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid event, got %d %v", result.StatusCode, err)
	}
	again, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if err != nil || again.Metadata["deduped"] != true {
		t.Fatalf("expected redelivery to be acknowledged, got %#v %v", again, err)
	}
	if handler.calls != 1 {
		t.Fatalf("expected one handler call, got %d", handler.calls)
	}
}

func TestDispatcher_RejectsUnverifiedDelivery(t *testing.T) {
	handler := &stubEventHandler{}
	dispatcher := NewDispatcher(stubVerifier{err: errors.New("invalid signature")}, NewInMemoryClaimStore(), handler)

	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{})
	if err == nil {
		t.Fatalf("expected verification error")
	}
	if result.StatusCode != http.StatusUnauthorized || result.Accepted {
		t.Fatalf("expected unauthorized result, got %#v", result)
	}
	if handler.calls != 0 {
		t.Fatalf("expected handler not called on failed verification")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryAuth || rich.TextCode != core.ErrorUnauthenticatedEvent || rich.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected envelope %q %q %d", rich.Category, rich.TextCode, rich.Code)
	}
}

func TestDispatcher_WithoutStoreAlwaysRuns(t *testing.T) {
	handler := &stubEventHandler{}
	dispatcher := NewDispatcher(stubVerifier{event: followEvent("m")}, nil, handler)
	for range 2 {
		if _, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	if handler.calls != 2 {
		t.Fatalf("expected two handler calls, got %d", handler.calls)
	}
}

func TestInMemoryClaimStore_RecoversAfterLeaseExpiry(t *testing.T) {
	store := NewInMemoryClaimStore()
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	store.Now = func() time.Time { return now }

	claimID, accepted, err := store.Claim(context.Background(), "kick:webhook:key", time.Minute)
	if err != nil {
		t.Fatalf("claim first: %v", err)
	}
	if !accepted || claimID == "" {
		t.Fatalf("expected first claim to be accepted")
	}

	if _, accepted, err := store.Claim(context.Background(), "kick:webhook:key", time.Minute); err != nil {
		t.Fatalf("claim while lease active: %v", err)
	} else if accepted {
		t.Fatalf("expected claim to be rejected while lease is active")
	}

	now = now.Add(2 * time.Minute)
	reclaimID, accepted, err := store.Claim(context.Background(), "kick:webhook:key", time.Minute)
	if err != nil {
		t.Fatalf("claim after lease expiry: %v", err)
	}
	if !accepted || reclaimID == "" || reclaimID == claimID {
		t.Fatalf("expected a new claim after lease expiry")
	}
	if err := store.Complete(context.Background(), claimID); err != nil {
		t.Fatalf("complete stale claim: %v", err)
	}
	if _, accepted, _ := store.Claim(context.Background(), "kick:webhook:key", time.Minute); accepted {
		t.Fatalf("expected stale completion to leave the live claim in place")
	}
}

func TestInMemoryClaimStore_RequiresKey(t *testing.T) {
	_, _, err := NewInMemoryClaimStore().Claim(context.Background(), "  ", time.Minute)
	if !core.IsKind(err, core.ErrorBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(errors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500 for plain errors, got %d", got)
	}
	wrapped := goerrors.New("bad", goerrors.CategoryBadInput).WithCode(http.StatusBadRequest)
	if got := StatusOf(wrapped); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
	if got := StatusOf(nil); got != http.StatusOK {
		t.Fatalf("expected 200, got %d", got)
	}
}

func followEvent(messageID string) core.InboundEvent {
	return core.InboundEvent{
		MessageID: messageID,
		Timestamp: "2025-01-14T16:08:06Z",
		Type:      core.EventChannelFollowed,
		Version:   "1",
		Body:      []byte(`{}`),
	}
}

type stubVerifier struct {
	event core.InboundEvent
	err   error
}

func (v stubVerifier) Verify(context.Context, core.InboundRequest) (core.InboundEvent, error) {
	if v.err != nil {
		return core.InboundEvent{}, v.err
	}
	return v.event, nil
}

type stubEventHandler struct {
	err   error
	calls int
	last  core.InboundEvent
}

func (h *stubEventHandler) Dispatch(_ context.Context, event core.InboundEvent) error {
	h.calls++
	h.last = event
	return h.err
}
