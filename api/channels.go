package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

const maxLookupItems = 50

type ChannelCategory struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
}

type ChannelStream struct {
	CustomTags  []string  `json:"customTags,omitempty"`
	IsLive      bool      `json:"isLive"`
	IsMature    bool      `json:"isMature"`
	Key         string    `json:"key"`
	Language    string    `json:"language"`
	StartTime   core.Time `json:"startTime"`
	Thumbnail   string    `json:"thumbnail"`
	URL         string    `json:"url"`
	ViewerCount int64     `json:"viewerCount"`
}

type Channel struct {
	BannerPicture      string          `json:"bannerPicture"`
	BroadcasterUserID  int64           `json:"broadcasterUserId"`
	Category           ChannelCategory `json:"category"`
	ChannelDescription string          `json:"channelDescription"`
	Slug               string          `json:"slug"`
	Stream             ChannelStream   `json:"stream"`
	StreamTitle        string          `json:"streamTitle"`
}

func (c Channel) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BroadcasterUserID, validation.Required),
		validation.Field(&c.Slug, validation.Required),
	)
}

// UpdateChannelRequest changes the live metadata of the authenticated
// channel. Nil fields are left untouched.
type UpdateChannelRequest struct {
	CategoryID  *int64   `json:"categoryId,omitempty"`
	CustomTags  []string `json:"customTags,omitempty"`
	StreamTitle *string  `json:"streamTitle,omitempty"`
}

func (r UpdateChannelRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryID, validation.Min(int64(1))),
		validation.Field(&r.CustomTags, validation.Each(validation.Required)),
	)
}

type channelLookup struct {
	BroadcasterUserIDs []int64  `json:"broadcasterUserId"`
	Slugs              []string `json:"slug"`
}

func (l channelLookup) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.BroadcasterUserIDs, validation.Length(0, maxLookupItems)),
		validation.Field(&l.Slugs, validation.Length(0, maxLookupItems), validation.Each(validation.Required, validation.RuneLength(1, 25))),
	)
}

type Channels struct {
	exec Executor
}

// Authenticated returns the channel of the user behind a delegated credential.
func (c *Channels) Authenticated(ctx context.Context) (Channel, error) {
	var out []Channel
	err := c.exec.Execute(ctx, core.Request{
		Operation:   "channels.authenticated",
		Method:      http.MethodGet,
		Path:        "/channels",
		Requirement: core.RequireDelegated(core.ScopeChannelRead),
	}, &out)
	if err != nil {
		return Channel{}, err
	}
	return firstItem(out, "/channels")
}

func (c *Channels) ByBroadcasterIDs(ctx context.Context, ids ...int64) ([]Channel, error) {
	if err := invalidQuery(channelLookup{BroadcasterUserIDs: ids}.Validate(), http.MethodGet, "/channels"); err != nil {
		return nil, err
	}
	params := url.Values{}
	for _, id := range ids {
		params.Add("broadcaster_user_id", strconv.FormatInt(id, 10))
	}
	return c.list(ctx, "channels.by_broadcaster_ids", params)
}

func (c *Channels) BySlugs(ctx context.Context, slugs ...string) ([]Channel, error) {
	if err := invalidQuery(channelLookup{Slugs: slugs}.Validate(), http.MethodGet, "/channels"); err != nil {
		return nil, err
	}
	params := url.Values{}
	for _, slug := range slugs {
		params.Add("slug", slug)
	}
	return c.list(ctx, "channels.by_slugs", params)
}

func (c *Channels) UpdateMetadata(ctx context.Context, req UpdateChannelRequest) error {
	return c.exec.Execute(ctx, core.Request{
		Operation:   "channels.update_metadata",
		Method:      http.MethodPatch,
		Path:        "/channels",
		Body:        req,
		Requirement: core.RequireDelegated(core.ScopeChannelWrite),
	}, nil)
}

func (c *Channels) list(ctx context.Context, operation string, params url.Values) ([]Channel, error) {
	var out []Channel
	err := c.exec.Execute(ctx, core.Request{
		Operation:   operation,
		Method:      http.MethodGet,
		Path:        "/channels",
		Query:       params,
		Requirement: core.RequireScopes(core.ScopeChannelRead),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
