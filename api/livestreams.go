package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

type LivestreamSort string

const (
	SortByViewerCount LivestreamSort = "viewer_count"
	SortByStartedAt   LivestreamSort = "started_at"
)

type Livestream struct {
	BroadcasterUserID int64           `json:"broadcasterUserId"`
	Category          ChannelCategory `json:"category"`
	ChannelID         int64           `json:"channelId"`
	CustomTags        []string        `json:"customTags,omitempty"`
	HasMatureContent  bool            `json:"hasMatureContent"`
	Language          string          `json:"language"`
	Slug              string          `json:"slug"`
	StartedAt         core.Time       `json:"startedAt"`
	StreamTitle       string          `json:"streamTitle"`
	Thumbnail         string          `json:"thumbnail"`
	ViewerCount       int64           `json:"viewerCount"`
}

func (l Livestream) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.BroadcasterUserID, validation.Required),
		validation.Field(&l.ChannelID, validation.Required),
	)
}

// LivestreamFilter narrows the livestream listing. Zero fields are omitted.
type LivestreamFilter struct {
	BroadcasterUserIDs []int64        `json:"broadcasterUserId,omitempty"`
	CategoryID         int64          `json:"categoryId,omitempty"`
	Language           string         `json:"language,omitempty"`
	Limit              int            `json:"limit,omitempty"`
	Sort               LivestreamSort `json:"sort,omitempty"`
}

func (f LivestreamFilter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.BroadcasterUserIDs, validation.Length(0, maxLookupItems)),
		validation.Field(&f.CategoryID, validation.Min(int64(1))),
		validation.Field(&f.Limit, validation.Min(1), validation.Max(100)),
		validation.Field(&f.Sort, validation.In(SortByViewerCount, SortByStartedAt)),
	)
}

func (f LivestreamFilter) query() url.Values {
	params := url.Values{}
	for _, id := range f.BroadcasterUserIDs {
		params.Add("broadcaster_user_id", strconv.FormatInt(id, 10))
	}
	if f.CategoryID > 0 {
		params.Set("category_id", strconv.FormatInt(f.CategoryID, 10))
	}
	if language := strings.TrimSpace(f.Language); language != "" {
		params.Set("language", language)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Sort != "" {
		params.Set("sort", string(f.Sort))
	}
	return params
}

type Livestreams struct {
	exec Executor
}

func (l *Livestreams) List(ctx context.Context, filter LivestreamFilter) ([]Livestream, error) {
	if err := invalidQuery(filter.Validate(), http.MethodGet, "/livestreams"); err != nil {
		return nil, err
	}
	var out []Livestream
	err := l.exec.Execute(ctx, core.Request{
		Operation: "livestreams.list",
		Method:    http.MethodGet,
		Path:      "/livestreams",
		Query:     filter.query(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
