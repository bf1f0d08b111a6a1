package events

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
	glog "github.com/goliatone/go-logger/glog"
)

// Subscriber is a client that can own webhook subscriptions.
type Subscriber interface {
	Endpoints() *api.API
	Credential() *core.Credential
}

type entry struct {
	formatters FormatterTable
	handlers   map[core.EventType]Handler
}

// Registry routes verified deliveries to the handlers registered per
// broadcaster and event type.
type Registry struct {
	logger core.Logger

	mu      sync.RWMutex
	entries map[int64]*entry
}

type Option func(*Registry)

func WithLogger(logger core.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	_, logger := glog.Resolve("kick.events", nil, nil)
	registry := &Registry{
		logger:  logger,
		entries: map[int64]*entry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(registry)
		}
	}
	return registry
}

// Register subscribes remotely to eventType and routes its deliveries to
// handler. An application subscriber subscribes for broadcasterID; a
// delegated subscriber always subscribes for its own channel, so
// broadcasterID must be the id of the user behind its credential. When the
// credential holds user:read that id is checked before subscribing.
func (r *Registry) Register(
	ctx context.Context,
	eventType core.EventType,
	broadcasterID int64,
	subscriber Subscriber,
	handler Handler,
) error {
	endpoints, delegated, err := r.checkRegistration(eventType, broadcasterID, subscriber, handler)
	if err != nil {
		return err
	}
	target := broadcasterID
	if delegated {
		if err := checkOwner(ctx, endpoints, subscriber.Credential(), eventType, broadcasterID); err != nil {
			return err
		}
		target = 0
	}
	results, err := endpoints.Events.Subscribe(ctx, target, eventType)
	if err != nil {
		return err
	}
	for _, result := range results {
		if reason := strings.TrimSpace(result.Error); reason != "" {
			return eventsError(
				fmt.Sprintf("events: subscription to %s rejected: %s", eventType, reason),
				goerrors.CategoryExternal,
				http.StatusConflict,
				core.ErrorSubscriptionRejected,
				map[string]any{"event_type": string(eventType), "broadcaster_user_id": broadcasterID},
			)
		}
	}
	r.attach(eventType, broadcasterID, endpoints, delegated, handler)
	r.logger.Info("events subscription registered",
		"event_type", string(eventType),
		"broadcaster_user_id", broadcasterID,
		"delegated", delegated,
	)
	return nil
}

// Bind routes deliveries like Register without creating a remote
// subscription, for subscriptions that already exist on Kick.
func (r *Registry) Bind(
	eventType core.EventType,
	broadcasterID int64,
	subscriber Subscriber,
	handler Handler,
) error {
	endpoints, delegated, err := r.checkRegistration(eventType, broadcasterID, subscriber, handler)
	if err != nil {
		return err
	}
	r.attach(eventType, broadcasterID, endpoints, delegated, handler)
	return nil
}

// Unregister stops routing eventType for broadcasterID. The remote
// subscription is left untouched.
func (r *Registry) Unregister(eventType core.EventType, broadcasterID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[broadcasterID]
	if !ok {
		return
	}
	delete(current.handlers, eventType)
	if len(current.handlers) == 0 {
		delete(r.entries, broadcasterID)
	}
}

// Subscribed lists the event types routed for broadcasterID.
func (r *Registry) Subscribed(broadcasterID int64) []core.EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	current, ok := r.entries[broadcasterID]
	if !ok {
		return nil
	}
	out := make([]core.EventType, 0, len(current.handlers))
	for eventType := range current.handlers {
		out = append(out, eventType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch formats a verified delivery and runs the handler registered for
// its broadcaster and type. Deliveries nobody registered for are dropped.
func (r *Registry) Dispatch(ctx context.Context, event core.InboundEvent) error {
	metadata := map[string]any{
		"event_type": string(event.Type),
		"message_id": event.MessageID,
	}
	if !event.Type.Valid() {
		return invalidEventError(fmt.Sprintf("events: unknown event type %q", event.Type), nil, metadata)
	}
	broadcasterID, err := broadcasterOf(event.Body)
	if err != nil {
		return invalidEventError("events: payload has no broadcaster", err, metadata)
	}
	metadata["broadcaster_user_id"] = broadcasterID

	r.mu.RLock()
	var (
		formatter Formatter
		handler   Handler
	)
	if current, ok := r.entries[broadcasterID]; ok {
		formatter = current.formatters[event.Type]
		handler = current.handlers[event.Type]
	}
	r.mu.RUnlock()

	if handler == nil || formatter == nil {
		r.logger.Debug("events delivery has no subscriber",
			"event_type", string(event.Type),
			"broadcaster_user_id", broadcasterID,
		)
		return nil
	}

	payload, err := formatter(event.Body)
	if err != nil {
		return invalidEventError("events: malformed payload", goerrors.FromOzzoValidation(err, "events: malformed payload"), metadata)
	}
	ctx = WithDelivery(ctx, Delivery{
		MessageID: event.MessageID,
		Timestamp: event.Timestamp,
		Type:      event.Type,
		Version:   event.Version,
	})
	if err := handler.Handle(ctx, payload); err != nil {
		return eventsWrapError(
			err,
			goerrors.CategoryOperation,
			"events: handler failed",
			http.StatusInternalServerError,
			core.ErrorHandlerFailed,
			metadata,
		)
	}
	return nil
}

// checkOwner rejects a delegated registration for a broadcaster other than
// the authenticated user. Credentials without user:read are trusted as is.
func checkOwner(ctx context.Context, endpoints *api.API, credential *core.Credential, eventType core.EventType, broadcasterID int64) error {
	if credential == nil || !credential.HasScope(core.ScopeUserRead) {
		return nil
	}
	self, err := endpoints.Users.Authenticated(ctx)
	if err != nil {
		return err
	}
	if self.UserID == broadcasterID {
		return nil
	}
	return eventsError(
		fmt.Sprintf("events: delegated subscription for %d must use the authenticated user %d", broadcasterID, self.UserID),
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ErrorBadRequest,
		map[string]any{
			"event_type":            string(eventType),
			"broadcaster_user_id":   broadcasterID,
			"authenticated_user_id": self.UserID,
		},
	)
}

func (r *Registry) checkRegistration(
	eventType core.EventType,
	broadcasterID int64,
	subscriber Subscriber,
	handler Handler,
) (*api.API, bool, error) {
	metadata := map[string]any{"event_type": string(eventType), "broadcaster_user_id": broadcasterID}
	if r == nil {
		return nil, false, eventsError("events: registry is nil", goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, nil)
	}
	expected, ok := PayloadType(eventType)
	if !ok {
		return nil, false, invalidEventError(fmt.Sprintf("events: unknown event type %q", eventType), nil, metadata)
	}
	if broadcasterID <= 0 {
		return nil, false, eventsError("events: broadcaster user id is required", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest, metadata)
	}
	if handler == nil {
		return nil, false, eventsError("events: handler is nil", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest, metadata)
	}
	if typedHandler, ok := handler.(typed); ok && typedHandler.payloadType() != expected {
		return nil, false, eventsError(
			fmt.Sprintf("events: %s delivers %s, handler expects %s", eventType, expected, typedHandler.payloadType()),
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			core.ErrorBadRequest,
			metadata,
		)
	}
	if subscriber == nil || subscriber.Endpoints() == nil || subscriber.Credential() == nil {
		return nil, false, eventsError("events: subscriber is required", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest, metadata)
	}
	return subscriber.Endpoints(), subscriber.Credential().IsDelegated(), nil
}

// attach merges handler into the broadcaster's entry. The formatter variant
// is fixed by the first subscriber registered for the broadcaster.
func (r *Registry) attach(eventType core.EventType, broadcasterID int64, endpoints *api.API, delegated bool, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[broadcasterID]
	if !ok {
		formatters := ApplicationFormatters(endpoints, broadcasterID)
		if delegated {
			formatters = DelegatedFormatters(endpoints, broadcasterID)
		}
		current = &entry{formatters: formatters, handlers: map[core.EventType]Handler{}}
		r.entries[broadcasterID] = current
	}
	if _, replaced := current.handlers[eventType]; replaced {
		r.logger.Warn("events handler replaced",
			"event_type", string(eventType),
			"broadcaster_user_id", broadcasterID,
		)
	}
	current.handlers[eventType] = handler
}

type broadcasterEnvelope struct {
	Broadcaster struct {
		UserID int64 `json:"userId"`
	} `json:"broadcaster"`
}

func broadcasterOf(raw []byte) (int64, error) {
	var envelope broadcasterEnvelope
	if err := core.DecodeWire(raw, &envelope); err != nil {
		return 0, err
	}
	if envelope.Broadcaster.UserID <= 0 {
		return 0, fmt.Errorf("events: broadcaster.user_id is missing")
	}
	return envelope.Broadcaster.UserID, nil
}
