package query

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/api"
)

const (
	TypeSearchCategories      = "kick.query.categories.search"
	TypeGetCategory           = "kick.query.categories.get"
	TypeAuthenticatedChannel  = "kick.query.channels.authenticated"
	TypeChannelsByBroadcaster = "kick.query.channels.by_broadcaster"
	TypeChannelsBySlug        = "kick.query.channels.by_slug"
	TypeListRewards           = "kick.query.rewards.list"
	TypeListSubscriptions     = "kick.query.events.list"
	TypeKicksLeaderboard      = "kick.query.kicks.leaderboard"
	TypeListLivestreams       = "kick.query.livestreams.list"
	TypeAuthenticatedUser     = "kick.query.users.authenticated"
	TypeUsersByID             = "kick.query.users.by_id"
)

const maxLookupItems = 50

type SearchCategoriesMessage struct {
	Query string
	Page  int
}

func (SearchCategoriesMessage) Type() string { return TypeSearchCategories }

func (m SearchCategoriesMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.Query, validation.Required),
		validation.Field(&m.Page, validation.Min(0)),
	), "query: invalid category search")
}

type GetCategoryMessage struct {
	CategoryID int64
}

func (GetCategoryMessage) Type() string { return TypeGetCategory }

func (m GetCategoryMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.CategoryID, validation.Required, validation.Min(int64(1))),
	), "query: invalid category lookup")
}

type AuthenticatedChannelMessage struct{}

func (AuthenticatedChannelMessage) Type() string { return TypeAuthenticatedChannel }

func (AuthenticatedChannelMessage) Validate() error { return nil }

type ChannelsByBroadcasterMessage struct {
	BroadcasterUserIDs []int64
}

func (ChannelsByBroadcasterMessage) Type() string { return TypeChannelsByBroadcaster }

func (m ChannelsByBroadcasterMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.BroadcasterUserIDs, validation.Required, validation.Length(1, maxLookupItems)),
	), "query: invalid channel lookup")
}

type ChannelsBySlugMessage struct {
	Slugs []string
}

func (ChannelsBySlugMessage) Type() string { return TypeChannelsBySlug }

func (m ChannelsBySlugMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.Slugs, validation.Required, validation.Length(1, maxLookupItems), validation.Each(validation.Required)),
	), "query: invalid channel lookup")
}

type ListRewardsMessage struct{}

func (ListRewardsMessage) Type() string { return TypeListRewards }

func (ListRewardsMessage) Validate() error { return nil }

// ListSubscriptionsMessage lists the event subscriptions of the credential.
// BroadcasterUserID narrows application credentials to one channel.
type ListSubscriptionsMessage struct {
	BroadcasterUserID int64
}

func (ListSubscriptionsMessage) Type() string { return TypeListSubscriptions }

func (m ListSubscriptionsMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.BroadcasterUserID, validation.Min(int64(0))),
	), "query: invalid subscription listing")
}

type KicksLeaderboardMessage struct {
	Top int
}

func (KicksLeaderboardMessage) Type() string { return TypeKicksLeaderboard }

func (m KicksLeaderboardMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.Top, validation.Min(0), validation.Max(100)),
	), "query: invalid leaderboard request")
}

type ListLivestreamsMessage struct {
	Filter api.LivestreamFilter
}

func (ListLivestreamsMessage) Type() string { return TypeListLivestreams }

func (m ListLivestreamsMessage) Validate() error {
	return queryWrapValidation(m.Filter.Validate(), "query: invalid livestream filter")
}

type AuthenticatedUserMessage struct{}

func (AuthenticatedUserMessage) Type() string { return TypeAuthenticatedUser }

func (AuthenticatedUserMessage) Validate() error { return nil }

type UsersByIDMessage struct {
	UserIDs []int64
}

func (UsersByIDMessage) Type() string { return TypeUsersByID }

func (m UsersByIDMessage) Validate() error {
	return queryWrapValidation(validation.ValidateStruct(&m,
		validation.Field(&m.UserIDs, validation.Length(0, maxLookupItems)),
	), "query: invalid user lookup")
}
