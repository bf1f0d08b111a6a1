package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

const webhookDeliveryMethod = "webhook"

type EventSubscription struct {
	AppID             string         `json:"appId"`
	BroadcasterUserID int64          `json:"broadcasterUserId"`
	CreatedAt         core.Time      `json:"createdAt"`
	Event             core.EventType `json:"event"`
	ID                string         `json:"id"`
	Method            string         `json:"method"`
	UpdatedAt         core.Time      `json:"updatedAt"`
	Version           int            `json:"version"`
}

func (s EventSubscription) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Event, validation.Required, validation.By(validEventType)),
	)
}

type SubscriptionResult struct {
	SubscriptionID string         `json:"subscriptionId"`
	Name           core.EventType `json:"name"`
	Version        int            `json:"version"`
	Error          string         `json:"error,omitempty"`
}

func (r SubscriptionResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.By(validEventType)),
	)
}

type EventSpec struct {
	Name    core.EventType `json:"name"`
	Version int            `json:"version"`
}

func (s EventSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.By(validEventType)),
		validation.Field(&s.Version, validation.Required, validation.Min(1)),
	)
}

// SubscribeRequest asks for webhook delivery of events. Application
// credentials must name the broadcaster; delegated credentials subscribe for
// their own user when BroadcasterUserID is nil.
type SubscribeRequest struct {
	BroadcasterUserID *int64      `json:"broadcasterUserId,omitempty"`
	Events            []EventSpec `json:"events"`
	Method            string      `json:"method"`
}

func (r SubscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BroadcasterUserID, validation.Min(int64(1))),
		validation.Field(&r.Events, validation.Required),
		validation.Field(&r.Method, validation.Required, validation.In(webhookDeliveryMethod)),
	)
}

type Events struct {
	exec Executor
}

// List returns the webhook subscriptions of the app. A zero broadcasterID
// lists all of them.
func (e *Events) List(ctx context.Context, broadcasterID int64) ([]EventSubscription, error) {
	params := url.Values{}
	if broadcasterID > 0 {
		params.Set("broadcaster_user_id", strconv.FormatInt(broadcasterID, 10))
	}
	var out []EventSubscription
	err := e.exec.Execute(ctx, core.Request{
		Operation: "events.list",
		Method:    http.MethodGet,
		Path:      "/events/subscriptions",
		Query:     params,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Subscribe requests version 1 of every event type in types. A zero
// broadcasterID subscribes for the user behind the credential.
func (e *Events) Subscribe(ctx context.Context, broadcasterID int64, types ...core.EventType) ([]SubscriptionResult, error) {
	req := SubscribeRequest{Method: webhookDeliveryMethod}
	if broadcasterID != 0 {
		id := broadcasterID
		req.BroadcasterUserID = &id
	}
	for _, eventType := range types {
		req.Events = append(req.Events, EventSpec{Name: eventType, Version: 1})
	}
	var out []SubscriptionResult
	err := e.exec.Execute(ctx, core.Request{
		Operation: "events.subscribe",
		Method:    http.MethodPost,
		Path:      "/events/subscriptions",
		Body:      req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validEventType(value any) error {
	eventType, _ := value.(core.EventType)
	if eventType == "" || eventType.Valid() {
		return nil
	}
	return validation.NewError("validation_event_type", "must be a known event type")
}
