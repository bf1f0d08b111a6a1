package api

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

type Reward struct {
	BackgroundColor                   string `json:"backgroundColor"`
	Cost                              int    `json:"cost"`
	Description                       string `json:"description"`
	ID                                string `json:"id"`
	IsEnabled                         bool   `json:"isEnabled"`
	IsPaused                          bool   `json:"isPaused"`
	IsUserInputRequired               bool   `json:"isUserInputRequired"`
	ShouldRedemptionsSkipRequestQueue bool   `json:"shouldRedemptionsSkipRequestQueue"`
	Title                             string `json:"title"`
}

func (r Reward) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Title, validation.Required),
	)
}

type CreateRewardRequest struct {
	BackgroundColor                   string `json:"backgroundColor,omitempty"`
	Cost                              int    `json:"cost"`
	Description                       string `json:"description,omitempty"`
	IsEnabled                         *bool  `json:"isEnabled,omitempty"`
	IsUserInputRequired               *bool  `json:"isUserInputRequired,omitempty"`
	ShouldRedemptionsSkipRequestQueue *bool  `json:"shouldRedemptionsSkipRequestQueue,omitempty"`
	Title                             string `json:"title"`
}

func (r CreateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BackgroundColor, validation.Match(hexColorPattern).Error("must be a hex color")),
		validation.Field(&r.Cost, validation.Required, validation.Min(1)),
		validation.Field(&r.Description, validation.RuneLength(0, 200)),
		validation.Field(&r.Title, validation.Required, validation.RuneLength(1, 50)),
	)
}

// UpdateRewardRequest is a partial update; nil fields are left untouched.
type UpdateRewardRequest struct {
	BackgroundColor                   *string `json:"backgroundColor,omitempty"`
	Cost                              *int    `json:"cost,omitempty"`
	Description                       *string `json:"description,omitempty"`
	IsEnabled                         *bool   `json:"isEnabled,omitempty"`
	IsPaused                          *bool   `json:"isPaused,omitempty"`
	IsUserInputRequired               *bool   `json:"isUserInputRequired,omitempty"`
	ShouldRedemptionsSkipRequestQueue *bool   `json:"shouldRedemptionsSkipRequestQueue,omitempty"`
	Title                             *string `json:"title,omitempty"`
}

func (r UpdateRewardRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BackgroundColor, validation.Match(hexColorPattern).Error("must be a hex color")),
		validation.Field(&r.Cost, validation.NilOrNotEmpty, validation.Min(1)),
		validation.Field(&r.Description, validation.RuneLength(0, 200)),
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 50)),
	)
}

type Rewards struct {
	exec Executor
}

func rewardsRequirement() *core.Requirement {
	return core.RequireDelegated(core.ScopeChannelRewardsWrite)
}

func (r *Rewards) List(ctx context.Context) ([]Reward, error) {
	var out []Reward
	err := r.exec.Execute(ctx, core.Request{
		Operation:   "rewards.list",
		Method:      http.MethodGet,
		Path:        "/channels/rewards",
		Requirement: rewardsRequirement(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Rewards) Create(ctx context.Context, req CreateRewardRequest) (Reward, error) {
	var out Reward
	err := r.exec.Execute(ctx, core.Request{
		Operation:   "rewards.create",
		Method:      http.MethodPost,
		Path:        "/channels/rewards",
		Body:        req,
		Requirement: rewardsRequirement(),
	}, &out)
	if err != nil {
		return Reward{}, err
	}
	return out, nil
}

func (r *Rewards) Update(ctx context.Context, id string, req UpdateRewardRequest) (Reward, error) {
	path, err := rewardPath(id, http.MethodPatch)
	if err != nil {
		return Reward{}, err
	}
	var out Reward
	err = r.exec.Execute(ctx, core.Request{
		Operation:   "rewards.update",
		Method:      http.MethodPatch,
		Path:        path,
		Body:        req,
		Requirement: rewardsRequirement(),
	}, &out)
	if err != nil {
		return Reward{}, err
	}
	return out, nil
}

func (r *Rewards) Delete(ctx context.Context, id string) error {
	path, err := rewardPath(id, http.MethodDelete)
	if err != nil {
		return err
	}
	return r.exec.Execute(ctx, core.Request{
		Operation:   "rewards.delete",
		Method:      http.MethodDelete,
		Path:        path,
		Requirement: rewardsRequirement(),
	}, nil)
}

func rewardPath(id string, method string) (string, error) {
	id = strings.TrimSpace(id)
	check := validation.Errors{"id": validation.Validate(id, validation.Required)}.Filter()
	if err := invalidQuery(check, method, "/channels/rewards/{id}"); err != nil {
		return "", err
	}
	return "/channels/rewards/" + url.PathEscape(id), nil
}
