package kick

import (
	"context"

	"github.com/goliatone/go-kick/core"
	"github.com/goliatone/go-kick/events"
)

type (
	Config         = core.Config
	Credential     = core.Credential
	CredentialKind = core.CredentialKind
	TokenSet       = core.TokenSet
	Scope          = core.Scope
	EventType      = core.EventType
	RefreshHook    = core.RefreshHook
	Registry       = events.Registry
	Handler        = events.Handler
	Delivery       = events.Delivery
)

const (
	EventChatMessageSent           = core.EventChatMessageSent
	EventChannelFollowed           = core.EventChannelFollowed
	EventSubscriptionRenewal       = core.EventSubscriptionRenewal
	EventSubscriptionGifts         = core.EventSubscriptionGifts
	EventSubscriptionNew           = core.EventSubscriptionNew
	EventRewardRedemptionUpdated   = core.EventRewardRedemptionUpdated
	EventLivestreamStatusUpdated   = core.EventLivestreamStatusUpdated
	EventLivestreamMetadataUpdated = core.EventLivestreamMetadataUpdated
	EventModerationBanned          = core.EventModerationBanned
	EventKicksGifted               = core.EventKicksGifted
)

var (
	DefaultConfig            = core.DefaultConfig
	NewApplicationCredential = core.NewApplicationCredential
	NewDelegatedCredential   = core.NewDelegatedCredential
	NewRegistry              = events.NewRegistry
	DeliveryFromContext      = events.DeliveryFromContext
)

// On adapts a typed payload callback into an event handler.
func On[T any](fn func(ctx context.Context, payload *T) error) Handler {
	return events.On(fn)
}
