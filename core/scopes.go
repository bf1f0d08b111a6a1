package core

import (
	"sort"
	"strings"
)

type Scope string

const (
	ScopeUserRead                    Scope = "user:read"
	ScopeChannelRead                 Scope = "channel:read"
	ScopeChannelWrite                Scope = "channel:write"
	ScopeChannelRewardsRead          Scope = "channel:rewards:read"
	ScopeChannelRewardsWrite         Scope = "channel:rewards:write"
	ScopeChatWrite                   Scope = "chat:write"
	ScopeStreamKeyRead               Scope = "streamkey:read"
	ScopeEventsSubscribe             Scope = "events:subscribe"
	ScopeModerationBan               Scope = "moderation:ban"
	ScopeModerationChatMessageManage Scope = "moderation:chat_message:manage"
	ScopeKicksRead                   Scope = "kicks:read"
)

// ParseScopes splits a space separated OAuth scope string.
func ParseScopes(raw string) []Scope {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	out := make([]Scope, 0, len(fields))
	seen := make(map[Scope]struct{}, len(fields))
	for _, field := range fields {
		scope := Scope(field)
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out
}

func JoinScopes(scopes []Scope) string {
	return strings.Join(scopeStrings(scopes), " ")
}

func scopeStrings(scopes []Scope) []string {
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		out = append(out, string(scope))
	}
	return out
}

func joinScopes(scopes []Scope) string {
	values := scopeStrings(scopes)
	sort.Strings(values)
	return strings.Join(values, ", ")
}

type EventType string

const (
	EventChatMessageSent           EventType = "chat.message.sent"
	EventChannelFollowed           EventType = "channel.followed"
	EventSubscriptionRenewal       EventType = "channel.subscription.renewal"
	EventSubscriptionGifts         EventType = "channel.subscription.gifts"
	EventSubscriptionNew           EventType = "channel.subscription.new"
	EventRewardRedemptionUpdated   EventType = "channel.reward.redemption.updated"
	EventLivestreamStatusUpdated   EventType = "livestream.status.updated"
	EventLivestreamMetadataUpdated EventType = "livestream.metadata.updated"
	EventModerationBanned          EventType = "moderation.banned"
	EventKicksGifted               EventType = "kicks.gifted"
)

func EventTypes() []EventType {
	return []EventType{
		EventChatMessageSent,
		EventChannelFollowed,
		EventSubscriptionRenewal,
		EventSubscriptionGifts,
		EventSubscriptionNew,
		EventRewardRedemptionUpdated,
		EventLivestreamStatusUpdated,
		EventLivestreamMetadataUpdated,
		EventModerationBanned,
		EventKicksGifted,
	}
}

func (t EventType) Valid() bool {
	for _, known := range EventTypes() {
		if t == known {
			return true
		}
	}
	return false
}
