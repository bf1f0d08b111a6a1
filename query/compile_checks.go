package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-kick/api"
)

var (
	_ gocmd.Querier[SearchCategoriesMessage, []api.CategorySummary]    = (*SearchCategoriesQuery)(nil)
	_ gocmd.Querier[GetCategoryMessage, api.Category]                  = (*GetCategoryQuery)(nil)
	_ gocmd.Querier[AuthenticatedChannelMessage, api.Channel]          = (*AuthenticatedChannelQuery)(nil)
	_ gocmd.Querier[ChannelsByBroadcasterMessage, []api.Channel]       = (*ChannelsByBroadcasterQuery)(nil)
	_ gocmd.Querier[ChannelsBySlugMessage, []api.Channel]              = (*ChannelsBySlugQuery)(nil)
	_ gocmd.Querier[ListRewardsMessage, []api.Reward]                  = (*ListRewardsQuery)(nil)
	_ gocmd.Querier[ListSubscriptionsMessage, []api.EventSubscription] = (*ListSubscriptionsQuery)(nil)
	_ gocmd.Querier[KicksLeaderboardMessage, api.KicksLeaderboard]     = (*KicksLeaderboardQuery)(nil)
	_ gocmd.Querier[ListLivestreamsMessage, []api.Livestream]          = (*ListLivestreamsQuery)(nil)
	_ gocmd.Querier[AuthenticatedUserMessage, api.User]                = (*AuthenticatedUserQuery)(nil)
	_ gocmd.Querier[UsersByIDMessage, []api.User]                      = (*UsersByIDQuery)(nil)

	_ CategoryReader     = (*api.Categories)(nil)
	_ ChannelReader      = (*api.Channels)(nil)
	_ RewardReader       = (*api.Rewards)(nil)
	_ SubscriptionReader = (*api.Events)(nil)
	_ KicksReader        = (*api.Kicks)(nil)
	_ LivestreamReader   = (*api.Livestreams)(nil)
	_ UserReader         = (*api.Users)(nil)
)
