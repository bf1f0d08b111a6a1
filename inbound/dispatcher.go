package inbound

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

const defaultKeyTTL = 10 * time.Minute

// Verifier authenticates a raw delivery and extracts its event headers.
type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) (core.InboundEvent, error)
}

// EventHandler consumes verified events.
type EventHandler interface {
	Dispatch(ctx context.Context, event core.InboundEvent) error
}

// ClaimStore tracks delivery ids so a redelivered message runs at most once
// while its claim is live, and runs again after a failure.
type ClaimStore interface {
	Claim(ctx context.Context, key string, lease time.Duration) (claimID string, accepted bool, err error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, retryAt time.Time) error
}

type Dispatcher struct {
	Verifier Verifier
	Store    ClaimStore
	Handler  EventHandler
	KeyTTL   time.Duration
}

func NewDispatcher(verifier Verifier, store ClaimStore, handler EventHandler) *Dispatcher {
	return &Dispatcher{
		Verifier: verifier,
		Store:    store,
		Handler:  handler,
		KeyTTL:   defaultKeyTTL,
	}
}

// Dispatch verifies req and hands the event to the handler. The result
// carries the status the webhook endpoint answers with: 401 for
// unauthenticated deliveries, 400 for events that can never be processed,
// 500 when the handler failed and 200 otherwise.
func (d *Dispatcher) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if d == nil || d.Verifier == nil || d.Handler == nil {
		return core.InboundResult{StatusCode: http.StatusInternalServerError}, errInternal("inbound: dispatcher is not configured")
	}
	event, err := d.Verifier.Verify(ctx, req)
	if err != nil {
		rejected := core.InboundResult{
			StatusCode: http.StatusUnauthorized,
			Metadata:   map[string]any{"rejected": true},
		}
		return rejected, errUnauthenticated(err)
	}
	metadata := map[string]any{
		"message_id": event.MessageID,
		"event_type": string(event.Type),
	}

	claimID, accepted, err := d.claim(ctx, event)
	if err != nil {
		return core.InboundResult{StatusCode: http.StatusInternalServerError, Metadata: metadata}, err
	}
	if !accepted {
		metadata["deduped"] = true
		return core.InboundResult{Accepted: true, StatusCode: http.StatusOK, Metadata: metadata}, nil
	}

	handlerErr := d.Handler.Dispatch(ctx, event)
	status := StatusOf(handlerErr)
	if settleErr := d.settle(ctx, event, claimID, status, handlerErr); settleErr != nil {
		if handlerErr == nil {
			status = http.StatusInternalServerError
		}
		handlerErr = errors.Join(handlerErr, settleErr)
	}
	if handlerErr != nil {
		metadata["status_code"] = status
		return core.InboundResult{StatusCode: status, Metadata: metadata}, handlerErr
	}
	return core.InboundResult{Accepted: true, StatusCode: http.StatusOK, Metadata: metadata}, nil
}

func (d *Dispatcher) claim(ctx context.Context, event core.InboundEvent) (string, bool, error) {
	if d.Store == nil {
		return "", true, nil
	}
	key := ClaimKey(event)
	ttl := d.KeyTTL
	if ttl <= 0 {
		ttl = defaultKeyTTL
	}
	claimID, accepted, err := d.Store.Claim(ctx, key, ttl)
	if err != nil {
		return "", false, errClaimStore(err, "inbound: delivery claim failed",
			map[string]any{"message_id": event.MessageID, "claim_key": key})
	}
	return claimID, accepted, nil
}

// settle completes the claim unless the handler failed with a 5xx, in which
// case the claim is released so a redelivery runs the handler again.
func (d *Dispatcher) settle(ctx context.Context, event core.InboundEvent, claimID string, status int, cause error) error {
	if d.Store == nil || claimID == "" {
		return nil
	}
	var err error
	if cause != nil && status >= http.StatusInternalServerError {
		err = d.Store.Fail(ctx, claimID, cause, time.Time{})
	} else {
		err = d.Store.Complete(ctx, claimID)
	}
	if err == nil {
		return nil
	}
	return errClaimStore(err, "inbound: settle delivery claim",
		map[string]any{"message_id": event.MessageID, "claim_id": claimID})
}

// ClaimKey is the dedup key of a delivery.
func ClaimKey(event core.InboundEvent) string {
	return "kick:webhook:" + strings.TrimSpace(event.MessageID)
}

// StatusOf maps a dispatch error to the HTTP status answered to Kick.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code >= http.StatusBadRequest && rich.Code < 600 {
		return rich.Code
	}
	return http.StatusInternalServerError
}
