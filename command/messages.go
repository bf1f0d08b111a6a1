package command

import (
	"strings"

	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
)

const (
	TypeSendChatMessage   = "kick.command.chat.send"
	TypeDeleteChatMessage = "kick.command.chat.delete"
	TypeBan               = "kick.command.moderation.ban"
	TypeTimeout           = "kick.command.moderation.timeout"
	TypeRemoveBan         = "kick.command.moderation.remove_ban"
	TypeUpdateChannel     = "kick.command.channel.update"
	TypeCreateReward      = "kick.command.reward.create"
	TypeUpdateReward      = "kick.command.reward.update"
	TypeDeleteReward      = "kick.command.reward.delete"
	TypeSubscribeEvents   = "kick.command.events.subscribe"
)

type SendChatMessage struct {
	Request api.SendMessageRequest
}

func (SendChatMessage) Type() string { return TypeSendChatMessage }

func (m SendChatMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid chat message")
}

type DeleteChatMessage struct {
	MessageID string
}

func (DeleteChatMessage) Type() string { return TypeDeleteChatMessage }

func (m DeleteChatMessage) Validate() error {
	if strings.TrimSpace(m.MessageID) == "" {
		return commandValidationError("messageId", "message id is required")
	}
	return nil
}

type BanMessage struct {
	Request api.BanRequest
}

func (BanMessage) Type() string { return TypeBan }

func (m BanMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid ban")
}

type TimeoutMessage struct {
	Request api.TimeoutRequest
}

func (TimeoutMessage) Type() string { return TypeTimeout }

func (m TimeoutMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid timeout")
}

type RemoveBanMessage struct {
	Request api.RemoveBanRequest
}

func (RemoveBanMessage) Type() string { return TypeRemoveBan }

func (m RemoveBanMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid ban removal")
}

type UpdateChannelMessage struct {
	Request api.UpdateChannelRequest
}

func (UpdateChannelMessage) Type() string { return TypeUpdateChannel }

func (m UpdateChannelMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid channel update")
}

type CreateRewardMessage struct {
	Request api.CreateRewardRequest
}

func (CreateRewardMessage) Type() string { return TypeCreateReward }

func (m CreateRewardMessage) Validate() error {
	return commandWrapValidation(m.Request.Validate(), "command: invalid reward")
}

type UpdateRewardMessage struct {
	RewardID string
	Request  api.UpdateRewardRequest
}

func (UpdateRewardMessage) Type() string { return TypeUpdateReward }

func (m UpdateRewardMessage) Validate() error {
	if strings.TrimSpace(m.RewardID) == "" {
		return commandValidationError("rewardId", "reward id is required")
	}
	return commandWrapValidation(m.Request.Validate(), "command: invalid reward update")
}

type DeleteRewardMessage struct {
	RewardID string
}

func (DeleteRewardMessage) Type() string { return TypeDeleteReward }

func (m DeleteRewardMessage) Validate() error {
	if strings.TrimSpace(m.RewardID) == "" {
		return commandValidationError("rewardId", "reward id is required")
	}
	return nil
}

// SubscribeEventsMessage subscribes to Events for BroadcasterUserID, or for
// the credential's own user when it is zero.
type SubscribeEventsMessage struct {
	BroadcasterUserID int64
	Events            []core.EventType
}

func (SubscribeEventsMessage) Type() string { return TypeSubscribeEvents }

func (m SubscribeEventsMessage) Validate() error {
	if m.BroadcasterUserID < 0 {
		return commandValidationError("broadcasterUserId", "must not be negative")
	}
	if len(m.Events) == 0 {
		return commandValidationError("events", "at least one event type is required")
	}
	for _, eventType := range m.Events {
		if !eventType.Valid() {
			return commandValidationError("events", "unknown event type "+string(eventType))
		}
	}
	return nil
}
