package events

import (
	"reflect"

	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
)

// Formatter shapes a verified raw payload into its typed event, a pointer to
// one of the payload structs of this package.
type Formatter func(raw []byte) (any, error)

// FormatterTable holds one formatter per event type.
type FormatterTable map[core.EventType]Formatter

type bindable interface {
	bind(*binding)
}

var payloadTypes = map[core.EventType]reflect.Type{
	core.EventChatMessageSent:           reflect.TypeFor[ChatMessageSent](),
	core.EventChannelFollowed:           reflect.TypeFor[ChannelFollowed](),
	core.EventSubscriptionRenewal:       reflect.TypeFor[SubscriptionRenewal](),
	core.EventSubscriptionGifts:         reflect.TypeFor[SubscriptionGifts](),
	core.EventSubscriptionNew:           reflect.TypeFor[SubscriptionNew](),
	core.EventRewardRedemptionUpdated:   reflect.TypeFor[RewardRedemptionUpdated](),
	core.EventLivestreamStatusUpdated:   reflect.TypeFor[LivestreamStatusUpdated](),
	core.EventLivestreamMetadataUpdated: reflect.TypeFor[LivestreamMetadataUpdated](),
	core.EventModerationBanned:          reflect.TypeFor[ModerationBanned](),
	core.EventKicksGifted:               reflect.TypeFor[KicksGifted](),
}

// PayloadType returns the struct type delivered to handlers of eventType.
func PayloadType(eventType core.EventType) (reflect.Type, bool) {
	payloadType, ok := payloadTypes[eventType]
	return payloadType, ok
}

// ApplicationFormatters builds the table used for subscribers holding an
// application credential: actors only expose lookups.
func ApplicationFormatters(endpoints *api.API, broadcasterID int64) FormatterTable {
	return newFormatterTable(&binding{endpoints: endpoints, broadcaster: broadcasterID})
}

// DelegatedFormatters builds the table used for subscribers holding a
// delegated credential: actors also expose moderation bound to broadcasterID
// and redeemed rewards can be edited.
func DelegatedFormatters(endpoints *api.API, broadcasterID int64) FormatterTable {
	return newFormatterTable(&binding{endpoints: endpoints, delegated: true, broadcaster: broadcasterID})
}

func newFormatterTable(b *binding) FormatterTable {
	return FormatterTable{
		core.EventChatMessageSent:           format[ChatMessageSent](b),
		core.EventChannelFollowed:           format[ChannelFollowed](b),
		core.EventSubscriptionRenewal:       format[SubscriptionRenewal](b),
		core.EventSubscriptionGifts:         format[SubscriptionGifts](b),
		core.EventSubscriptionNew:           format[SubscriptionNew](b),
		core.EventRewardRedemptionUpdated:   format[RewardRedemptionUpdated](b),
		core.EventLivestreamStatusUpdated:   format[LivestreamStatusUpdated](b),
		core.EventLivestreamMetadataUpdated: format[LivestreamMetadataUpdated](b),
		core.EventModerationBanned:          format[ModerationBanned](b),
		core.EventKicksGifted:               format[KicksGifted](b),
	}
}

func format[T any, P interface {
	*T
	bindable
}](b *binding) Formatter {
	return func(raw []byte) (any, error) {
		var payload T
		if err := core.DecodeWire(raw, &payload); err != nil {
			return nil, err
		}
		P(&payload).bind(b)
		return &payload, nil
	}
}
