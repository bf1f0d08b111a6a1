package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-kick/api"
)

var (
	_ gocmd.Commander[SendChatMessage]        = (*SendChatCommand)(nil)
	_ gocmd.Commander[DeleteChatMessage]      = (*DeleteChatCommand)(nil)
	_ gocmd.Commander[BanMessage]             = (*BanCommand)(nil)
	_ gocmd.Commander[TimeoutMessage]         = (*TimeoutCommand)(nil)
	_ gocmd.Commander[RemoveBanMessage]       = (*RemoveBanCommand)(nil)
	_ gocmd.Commander[UpdateChannelMessage]   = (*UpdateChannelCommand)(nil)
	_ gocmd.Commander[CreateRewardMessage]    = (*CreateRewardCommand)(nil)
	_ gocmd.Commander[UpdateRewardMessage]    = (*UpdateRewardCommand)(nil)
	_ gocmd.Commander[DeleteRewardMessage]    = (*DeleteRewardCommand)(nil)
	_ gocmd.Commander[SubscribeEventsMessage] = (*SubscribeEventsCommand)(nil)

	_ ChatService       = (*api.Chat)(nil)
	_ ModerationService = (*api.Moderation)(nil)
	_ ChannelService    = (*api.Channels)(nil)
	_ RewardService     = (*api.Rewards)(nil)
	_ EventService      = (*api.Events)(nil)
)
