package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
)

type ChatService interface {
	Send(ctx context.Context, req api.SendMessageRequest) (api.SentMessage, error)
	Delete(ctx context.Context, messageID string) error
}

type ModerationService interface {
	Ban(ctx context.Context, req api.BanRequest) error
	Timeout(ctx context.Context, req api.TimeoutRequest) error
	RemoveBan(ctx context.Context, req api.RemoveBanRequest) error
}

type ChannelService interface {
	UpdateMetadata(ctx context.Context, req api.UpdateChannelRequest) error
}

type RewardService interface {
	Create(ctx context.Context, req api.CreateRewardRequest) (api.Reward, error)
	Update(ctx context.Context, id string, req api.UpdateRewardRequest) (api.Reward, error)
	Delete(ctx context.Context, id string) error
}

type EventService interface {
	Subscribe(ctx context.Context, broadcasterID int64, types ...core.EventType) ([]api.SubscriptionResult, error)
}

type SendChatCommand struct {
	chat ChatService
}

func NewSendChatCommand(chat ChatService) *SendChatCommand {
	return &SendChatCommand{chat: chat}
}

func (c *SendChatCommand) Execute(ctx context.Context, msg SendChatMessage) error {
	if c == nil || c.chat == nil {
		return commandDependencyError("command: chat service is required")
	}
	out, err := c.chat.Send(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteChatCommand struct {
	chat ChatService
}

func NewDeleteChatCommand(chat ChatService) *DeleteChatCommand {
	return &DeleteChatCommand{chat: chat}
}

func (c *DeleteChatCommand) Execute(ctx context.Context, msg DeleteChatMessage) error {
	if c == nil || c.chat == nil {
		return commandDependencyError("command: chat service is required")
	}
	return c.chat.Delete(ctx, msg.MessageID)
}

type BanCommand struct {
	moderation ModerationService
}

func NewBanCommand(moderation ModerationService) *BanCommand {
	return &BanCommand{moderation: moderation}
}

func (c *BanCommand) Execute(ctx context.Context, msg BanMessage) error {
	if c == nil || c.moderation == nil {
		return commandDependencyError("command: moderation service is required")
	}
	return c.moderation.Ban(ctx, msg.Request)
}

type TimeoutCommand struct {
	moderation ModerationService
}

func NewTimeoutCommand(moderation ModerationService) *TimeoutCommand {
	return &TimeoutCommand{moderation: moderation}
}

func (c *TimeoutCommand) Execute(ctx context.Context, msg TimeoutMessage) error {
	if c == nil || c.moderation == nil {
		return commandDependencyError("command: moderation service is required")
	}
	return c.moderation.Timeout(ctx, msg.Request)
}

type RemoveBanCommand struct {
	moderation ModerationService
}

func NewRemoveBanCommand(moderation ModerationService) *RemoveBanCommand {
	return &RemoveBanCommand{moderation: moderation}
}

func (c *RemoveBanCommand) Execute(ctx context.Context, msg RemoveBanMessage) error {
	if c == nil || c.moderation == nil {
		return commandDependencyError("command: moderation service is required")
	}
	return c.moderation.RemoveBan(ctx, msg.Request)
}

type UpdateChannelCommand struct {
	channels ChannelService
}

func NewUpdateChannelCommand(channels ChannelService) *UpdateChannelCommand {
	return &UpdateChannelCommand{channels: channels}
}

func (c *UpdateChannelCommand) Execute(ctx context.Context, msg UpdateChannelMessage) error {
	if c == nil || c.channels == nil {
		return commandDependencyError("command: channel service is required")
	}
	return c.channels.UpdateMetadata(ctx, msg.Request)
}

type CreateRewardCommand struct {
	rewards RewardService
}

func NewCreateRewardCommand(rewards RewardService) *CreateRewardCommand {
	return &CreateRewardCommand{rewards: rewards}
}

func (c *CreateRewardCommand) Execute(ctx context.Context, msg CreateRewardMessage) error {
	if c == nil || c.rewards == nil {
		return commandDependencyError("command: reward service is required")
	}
	out, err := c.rewards.Create(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateRewardCommand struct {
	rewards RewardService
}

func NewUpdateRewardCommand(rewards RewardService) *UpdateRewardCommand {
	return &UpdateRewardCommand{rewards: rewards}
}

func (c *UpdateRewardCommand) Execute(ctx context.Context, msg UpdateRewardMessage) error {
	if c == nil || c.rewards == nil {
		return commandDependencyError("command: reward service is required")
	}
	out, err := c.rewards.Update(ctx, msg.RewardID, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteRewardCommand struct {
	rewards RewardService
}

func NewDeleteRewardCommand(rewards RewardService) *DeleteRewardCommand {
	return &DeleteRewardCommand{rewards: rewards}
}

func (c *DeleteRewardCommand) Execute(ctx context.Context, msg DeleteRewardMessage) error {
	if c == nil || c.rewards == nil {
		return commandDependencyError("command: reward service is required")
	}
	return c.rewards.Delete(ctx, msg.RewardID)
}

type SubscribeEventsCommand struct {
	events EventService
}

func NewSubscribeEventsCommand(events EventService) *SubscribeEventsCommand {
	return &SubscribeEventsCommand{events: events}
}

func (c *SubscribeEventsCommand) Execute(ctx context.Context, msg SubscribeEventsMessage) error {
	if c == nil || c.events == nil {
		return commandDependencyError("command: event service is required")
	}
	out, err := c.events.Subscribe(ctx, msg.BroadcasterUserID, msg.Events...)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// Commands groups one commander per mutating endpoint.
type Commands struct {
	SendChat        *SendChatCommand
	DeleteChat      *DeleteChatCommand
	Ban             *BanCommand
	Timeout         *TimeoutCommand
	RemoveBan       *RemoveBanCommand
	UpdateChannel   *UpdateChannelCommand
	CreateReward    *CreateRewardCommand
	UpdateReward    *UpdateRewardCommand
	DeleteReward    *DeleteRewardCommand
	SubscribeEvents *SubscribeEventsCommand
}

func NewCommands(endpoints *api.API) Commands {
	if endpoints == nil {
		return Commands{}
	}
	return Commands{
		SendChat:        NewSendChatCommand(endpoints.Chat),
		DeleteChat:      NewDeleteChatCommand(endpoints.Chat),
		Ban:             NewBanCommand(endpoints.Moderation),
		Timeout:         NewTimeoutCommand(endpoints.Moderation),
		RemoveBan:       NewRemoveBanCommand(endpoints.Moderation),
		UpdateChannel:   NewUpdateChannelCommand(endpoints.Channels),
		CreateReward:    NewCreateRewardCommand(endpoints.Rewards),
		UpdateReward:    NewUpdateRewardCommand(endpoints.Rewards),
		DeleteReward:    NewDeleteRewardCommand(endpoints.Rewards),
		SubscribeEvents: NewSubscribeEventsCommand(endpoints.Events),
	}
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
