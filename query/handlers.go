package query

import (
	"context"

	"github.com/goliatone/go-kick/api"
)

type CategoryReader interface {
	Search(ctx context.Context, query string, page int) ([]api.CategorySummary, error)
	Get(ctx context.Context, id int64) (api.Category, error)
}

type ChannelReader interface {
	Authenticated(ctx context.Context) (api.Channel, error)
	ByBroadcasterIDs(ctx context.Context, ids ...int64) ([]api.Channel, error)
	BySlugs(ctx context.Context, slugs ...string) ([]api.Channel, error)
}

type RewardReader interface {
	List(ctx context.Context) ([]api.Reward, error)
}

type SubscriptionReader interface {
	List(ctx context.Context, broadcasterID int64) ([]api.EventSubscription, error)
}

type KicksReader interface {
	Leaderboard(ctx context.Context, top int) (api.KicksLeaderboard, error)
}

type LivestreamReader interface {
	List(ctx context.Context, filter api.LivestreamFilter) ([]api.Livestream, error)
}

type UserReader interface {
	Authenticated(ctx context.Context) (api.User, error)
	ByIDs(ctx context.Context, ids ...int64) ([]api.User, error)
}

type SearchCategoriesQuery struct {
	reader CategoryReader
}

func NewSearchCategoriesQuery(reader CategoryReader) *SearchCategoriesQuery {
	return &SearchCategoriesQuery{reader: reader}
}

func (q *SearchCategoriesQuery) Query(ctx context.Context, msg SearchCategoriesMessage) ([]api.CategorySummary, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: category reader is required")
	}
	return q.reader.Search(ctx, msg.Query, msg.Page)
}

type GetCategoryQuery struct {
	reader CategoryReader
}

func NewGetCategoryQuery(reader CategoryReader) *GetCategoryQuery {
	return &GetCategoryQuery{reader: reader}
}

func (q *GetCategoryQuery) Query(ctx context.Context, msg GetCategoryMessage) (api.Category, error) {
	if q == nil || q.reader == nil {
		return api.Category{}, queryDependencyError("query: category reader is required")
	}
	return q.reader.Get(ctx, msg.CategoryID)
}

type AuthenticatedChannelQuery struct {
	reader ChannelReader
}

func NewAuthenticatedChannelQuery(reader ChannelReader) *AuthenticatedChannelQuery {
	return &AuthenticatedChannelQuery{reader: reader}
}

func (q *AuthenticatedChannelQuery) Query(ctx context.Context, _ AuthenticatedChannelMessage) (api.Channel, error) {
	if q == nil || q.reader == nil {
		return api.Channel{}, queryDependencyError("query: channel reader is required")
	}
	return q.reader.Authenticated(ctx)
}

type ChannelsByBroadcasterQuery struct {
	reader ChannelReader
}

func NewChannelsByBroadcasterQuery(reader ChannelReader) *ChannelsByBroadcasterQuery {
	return &ChannelsByBroadcasterQuery{reader: reader}
}

func (q *ChannelsByBroadcasterQuery) Query(ctx context.Context, msg ChannelsByBroadcasterMessage) ([]api.Channel, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: channel reader is required")
	}
	return q.reader.ByBroadcasterIDs(ctx, msg.BroadcasterUserIDs...)
}

type ChannelsBySlugQuery struct {
	reader ChannelReader
}

func NewChannelsBySlugQuery(reader ChannelReader) *ChannelsBySlugQuery {
	return &ChannelsBySlugQuery{reader: reader}
}

func (q *ChannelsBySlugQuery) Query(ctx context.Context, msg ChannelsBySlugMessage) ([]api.Channel, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: channel reader is required")
	}
	return q.reader.BySlugs(ctx, msg.Slugs...)
}

type ListRewardsQuery struct {
	reader RewardReader
}

func NewListRewardsQuery(reader RewardReader) *ListRewardsQuery {
	return &ListRewardsQuery{reader: reader}
}

func (q *ListRewardsQuery) Query(ctx context.Context, _ ListRewardsMessage) ([]api.Reward, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: reward reader is required")
	}
	return q.reader.List(ctx)
}

type ListSubscriptionsQuery struct {
	reader SubscriptionReader
}

func NewListSubscriptionsQuery(reader SubscriptionReader) *ListSubscriptionsQuery {
	return &ListSubscriptionsQuery{reader: reader}
}

func (q *ListSubscriptionsQuery) Query(ctx context.Context, msg ListSubscriptionsMessage) ([]api.EventSubscription, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: subscription reader is required")
	}
	return q.reader.List(ctx, msg.BroadcasterUserID)
}

type KicksLeaderboardQuery struct {
	reader KicksReader
}

func NewKicksLeaderboardQuery(reader KicksReader) *KicksLeaderboardQuery {
	return &KicksLeaderboardQuery{reader: reader}
}

func (q *KicksLeaderboardQuery) Query(ctx context.Context, msg KicksLeaderboardMessage) (api.KicksLeaderboard, error) {
	if q == nil || q.reader == nil {
		return api.KicksLeaderboard{}, queryDependencyError("query: kicks reader is required")
	}
	return q.reader.Leaderboard(ctx, msg.Top)
}

type ListLivestreamsQuery struct {
	reader LivestreamReader
}

func NewListLivestreamsQuery(reader LivestreamReader) *ListLivestreamsQuery {
	return &ListLivestreamsQuery{reader: reader}
}

func (q *ListLivestreamsQuery) Query(ctx context.Context, msg ListLivestreamsMessage) ([]api.Livestream, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: livestream reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type AuthenticatedUserQuery struct {
	reader UserReader
}

func NewAuthenticatedUserQuery(reader UserReader) *AuthenticatedUserQuery {
	return &AuthenticatedUserQuery{reader: reader}
}

func (q *AuthenticatedUserQuery) Query(ctx context.Context, _ AuthenticatedUserMessage) (api.User, error) {
	if q == nil || q.reader == nil {
		return api.User{}, queryDependencyError("query: user reader is required")
	}
	return q.reader.Authenticated(ctx)
}

type UsersByIDQuery struct {
	reader UserReader
}

func NewUsersByIDQuery(reader UserReader) *UsersByIDQuery {
	return &UsersByIDQuery{reader: reader}
}

func (q *UsersByIDQuery) Query(ctx context.Context, msg UsersByIDMessage) ([]api.User, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: user reader is required")
	}
	return q.reader.ByIDs(ctx, msg.UserIDs...)
}

// Queries groups one querier per read endpoint.
type Queries struct {
	SearchCategories      *SearchCategoriesQuery
	GetCategory           *GetCategoryQuery
	AuthenticatedChannel  *AuthenticatedChannelQuery
	ChannelsByBroadcaster *ChannelsByBroadcasterQuery
	ChannelsBySlug        *ChannelsBySlugQuery
	ListRewards           *ListRewardsQuery
	ListSubscriptions     *ListSubscriptionsQuery
	KicksLeaderboard      *KicksLeaderboardQuery
	ListLivestreams       *ListLivestreamsQuery
	AuthenticatedUser     *AuthenticatedUserQuery
	UsersByID             *UsersByIDQuery
}

func NewQueries(endpoints *api.API) Queries {
	if endpoints == nil {
		return Queries{}
	}
	return Queries{
		SearchCategories:      NewSearchCategoriesQuery(endpoints.Categories),
		GetCategory:           NewGetCategoryQuery(endpoints.Categories),
		AuthenticatedChannel:  NewAuthenticatedChannelQuery(endpoints.Channels),
		ChannelsByBroadcaster: NewChannelsByBroadcasterQuery(endpoints.Channels),
		ChannelsBySlug:        NewChannelsBySlugQuery(endpoints.Channels),
		ListRewards:           NewListRewardsQuery(endpoints.Rewards),
		ListSubscriptions:     NewListSubscriptionsQuery(endpoints.Events),
		KicksLeaderboard:      NewKicksLeaderboardQuery(endpoints.Kicks),
		ListLivestreams:       NewListLivestreamsQuery(endpoints.Livestreams),
		AuthenticatedUser:     NewAuthenticatedUserQuery(endpoints.Users),
		UsersByID:             NewUsersByIDQuery(endpoints.Users),
	}
}
