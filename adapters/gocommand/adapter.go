package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	"github.com/goliatone/go-kick/api"
	kickcommand "github.com/goliatone/go-kick/command"
	kickquery "github.com/goliatone/go-kick/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) register(handler any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(handler)
}

// AddQueueResolver mirrors every registered command into queueRegistry so a
// go-job worker can execute it by message type.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.register(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := commanddispatcher.SubscribeQuery(qry, runnerOpts...)
	if err := adapter.register(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Subscriptions releases a group of dispatcher subscriptions together.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

type registration func(*RegistryAdapter, []runner.Option) (commanddispatcher.Subscription, error)

func commandRegistration[T any, C interface {
	*P
	command.Commander[T]
}, P any](cmd C) registration {
	if cmd == nil {
		return nil
	}
	return func(adapter *RegistryAdapter, opts []runner.Option) (commanddispatcher.Subscription, error) {
		return RegisterAndSubscribe[T](adapter, cmd, opts...)
	}
}

func queryRegistration[T any, R any, Q interface {
	*P
	command.Querier[T, R]
}, P any](qry Q) registration {
	if qry == nil {
		return nil
	}
	return func(adapter *RegistryAdapter, opts []runner.Option) (commanddispatcher.Subscription, error) {
		return RegisterAndSubscribeQuery[T, R](adapter, qry, opts...)
	}
}

// RegisterCommands registers and subscribes every commander in commands.
// Nil commanders are skipped. On failure the subscriptions made so far are
// released.
func RegisterCommands(adapter *RegistryAdapter, commands kickcommand.Commands, runnerOpts ...runner.Option) (Subscriptions, error) {
	return registerAll(adapter, runnerOpts,
		commandRegistration[kickcommand.SendChatMessage](commands.SendChat),
		commandRegistration[kickcommand.DeleteChatMessage](commands.DeleteChat),
		commandRegistration[kickcommand.BanMessage](commands.Ban),
		commandRegistration[kickcommand.TimeoutMessage](commands.Timeout),
		commandRegistration[kickcommand.RemoveBanMessage](commands.RemoveBan),
		commandRegistration[kickcommand.UpdateChannelMessage](commands.UpdateChannel),
		commandRegistration[kickcommand.CreateRewardMessage](commands.CreateReward),
		commandRegistration[kickcommand.UpdateRewardMessage](commands.UpdateReward),
		commandRegistration[kickcommand.DeleteRewardMessage](commands.DeleteReward),
		commandRegistration[kickcommand.SubscribeEventsMessage](commands.SubscribeEvents),
	)
}

// RegisterQueries registers and subscribes every querier in queries.
func RegisterQueries(adapter *RegistryAdapter, queries kickquery.Queries, runnerOpts ...runner.Option) (Subscriptions, error) {
	return registerAll(adapter, runnerOpts,
		queryRegistration[kickquery.SearchCategoriesMessage, []api.CategorySummary](queries.SearchCategories),
		queryRegistration[kickquery.GetCategoryMessage, api.Category](queries.GetCategory),
		queryRegistration[kickquery.AuthenticatedChannelMessage, api.Channel](queries.AuthenticatedChannel),
		queryRegistration[kickquery.ChannelsByBroadcasterMessage, []api.Channel](queries.ChannelsByBroadcaster),
		queryRegistration[kickquery.ChannelsBySlugMessage, []api.Channel](queries.ChannelsBySlug),
		queryRegistration[kickquery.ListRewardsMessage, []api.Reward](queries.ListRewards),
		queryRegistration[kickquery.ListSubscriptionsMessage, []api.EventSubscription](queries.ListSubscriptions),
		queryRegistration[kickquery.KicksLeaderboardMessage, api.KicksLeaderboard](queries.KicksLeaderboard),
		queryRegistration[kickquery.ListLivestreamsMessage, []api.Livestream](queries.ListLivestreams),
		queryRegistration[kickquery.AuthenticatedUserMessage, api.User](queries.AuthenticatedUser),
		queryRegistration[kickquery.UsersByIDMessage, []api.User](queries.UsersByID),
	)
}

func registerAll(adapter *RegistryAdapter, opts []runner.Option, registrations ...registration) (Subscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	subs := make(Subscriptions, 0, len(registrations))
	for _, register := range registrations {
		if register == nil {
			continue
		}
		sub, err := register(adapter, opts)
		if err != nil {
			subs.Unsubscribe()
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
