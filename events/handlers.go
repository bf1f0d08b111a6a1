package events

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-kick/core"
)

type Handler interface {
	Handle(ctx context.Context, payload any) error
}

// HandlerFunc receives the formatted payload untyped.
type HandlerFunc func(ctx context.Context, payload any) error

func (f HandlerFunc) Handle(ctx context.Context, payload any) error {
	return f(ctx, payload)
}

type typedHandler[T any] struct {
	fn func(context.Context, *T) error
}

// On adapts a typed callback, e.g. On(func(ctx context.Context, e *ChatMessageSent) error).
// Registering it for an event type whose payload is not T fails.
func On[T any](fn func(ctx context.Context, payload *T) error) Handler {
	return typedHandler[T]{fn: fn}
}

func (h typedHandler[T]) Handle(ctx context.Context, payload any) error {
	typed, ok := payload.(*T)
	if !ok {
		return fmt.Errorf("events: handler expects *%s, got %T", reflect.TypeFor[T](), payload)
	}
	if h.fn == nil {
		return nil
	}
	return h.fn(ctx, typed)
}

func (h typedHandler[T]) payloadType() reflect.Type {
	return reflect.TypeFor[T]()
}

type typed interface {
	payloadType() reflect.Type
}

// Delivery identifies the webhook message a handler is running for.
type Delivery struct {
	MessageID string
	Timestamp string
	Type      core.EventType
	Version   string
}

type deliveryKey struct{}

func WithDelivery(ctx context.Context, delivery Delivery) context.Context {
	return context.WithValue(ctx, deliveryKey{}, delivery)
}

func DeliveryFromContext(ctx context.Context) (Delivery, bool) {
	if ctx == nil {
		return Delivery{}, false
	}
	delivery, ok := ctx.Value(deliveryKey{}).(Delivery)
	return delivery, ok
}
