package events

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/api"
	"github.com/goliatone/go-kick/core"
)

// binding ties actors of one delivery to the endpoints of the subscriber
// that registered for it. Moderation actions need a delegated subscriber.
type binding struct {
	endpoints   *api.API
	delegated   bool
	broadcaster int64
}

// Viewer is a user appearing in an event payload, with lookups and, for
// delegated subscribers, moderation actions scoped to the event's channel.
type Viewer struct {
	User
	bound *binding
}

func (v *Viewer) bind(b *binding) {
	if v.IsAnonymous || v.UserID == 0 {
		return
	}
	v.bound = b
}

// CanModerate reports whether Ban, Timeout and RemoveBan are available.
func (v Viewer) CanModerate() bool {
	return v.bound != nil && v.bound.delegated
}

// GetChannel looks up the channel of the viewer.
func (v Viewer) GetChannel(ctx context.Context) (api.Channel, error) {
	b, err := v.lookups("get_channel")
	if err != nil {
		return api.Channel{}, err
	}
	channels, err := b.endpoints.Channels.ByBroadcasterIDs(ctx, v.UserID)
	if err != nil {
		return api.Channel{}, err
	}
	if len(channels) == 0 {
		return api.Channel{}, core.NewEmptyResponseError(core.RequestDetail{Endpoint: "/channels", Method: http.MethodGet})
	}
	return channels[0], nil
}

// GetLivestream returns the current livestream of the viewer, failing with an
// empty response error when the viewer is offline.
func (v Viewer) GetLivestream(ctx context.Context) (api.Livestream, error) {
	b, err := v.lookups("get_livestream")
	if err != nil {
		return api.Livestream{}, err
	}
	streams, err := b.endpoints.Livestreams.List(ctx, api.LivestreamFilter{BroadcasterUserIDs: []int64{v.UserID}})
	if err != nil {
		return api.Livestream{}, err
	}
	if len(streams) == 0 {
		return api.Livestream{}, core.NewEmptyResponseError(core.RequestDetail{Endpoint: "/livestreams", Method: http.MethodGet})
	}
	return streams[0], nil
}

func (v Viewer) Ban(ctx context.Context, reason string) error {
	b, err := v.moderation("ban")
	if err != nil {
		return err
	}
	return b.endpoints.Moderation.Ban(ctx, api.BanRequest{
		BroadcasterUserID: b.broadcaster,
		UserID:            v.UserID,
		Reason:            reason,
	})
}

// Timeout bans the viewer for minutes.
func (v Viewer) Timeout(ctx context.Context, minutes int, reason string) error {
	b, err := v.moderation("timeout")
	if err != nil {
		return err
	}
	return b.endpoints.Moderation.Timeout(ctx, api.TimeoutRequest{
		BroadcasterUserID: b.broadcaster,
		UserID:            v.UserID,
		Duration:          minutes,
		Reason:            reason,
	})
}

func (v Viewer) RemoveBan(ctx context.Context) error {
	b, err := v.moderation("remove_ban")
	if err != nil {
		return err
	}
	return b.endpoints.Moderation.RemoveBan(ctx, api.RemoveBanRequest{
		BroadcasterUserID: b.broadcaster,
		UserID:            v.UserID,
	})
}

func (v Viewer) lookups(action string) (*binding, error) {
	if v.bound == nil || v.bound.endpoints == nil {
		return nil, unboundActorError(action, v.UserID)
	}
	return v.bound, nil
}

func (v Viewer) moderation(action string) (*binding, error) {
	b, err := v.lookups(action)
	if err != nil {
		return nil, err
	}
	if !b.delegated {
		return nil, core.NewDelegationRequiredError("moderation." + action)
	}
	return b, nil
}

// RedeemedReward is the reward of a redemption event. Update and Delete need
// a delegated subscriber.
type RedeemedReward struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Cost        int    `json:"cost"`
	Description string `json:"description"`

	bound *binding
}

func (r RedeemedReward) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
	)
}

func (r *RedeemedReward) bind(b *binding) {
	r.bound = b
}

func (r RedeemedReward) Update(ctx context.Context, req api.UpdateRewardRequest) (api.Reward, error) {
	b, err := r.manage("rewards.update")
	if err != nil {
		return api.Reward{}, err
	}
	return b.endpoints.Rewards.Update(ctx, r.ID, req)
}

func (r RedeemedReward) Delete(ctx context.Context) error {
	b, err := r.manage("rewards.delete")
	if err != nil {
		return err
	}
	return b.endpoints.Rewards.Delete(ctx, r.ID)
}

func (r RedeemedReward) manage(operation string) (*binding, error) {
	if r.bound == nil || r.bound.endpoints == nil {
		return nil, unboundActorError(operation, 0)
	}
	if !r.bound.delegated {
		return nil, core.NewDelegationRequiredError(operation)
	}
	return r.bound, nil
}
