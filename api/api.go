// Package api exposes the Kick public endpoints as thin call sites over the
// core request pipeline. Each call declares its path, method, permission
// requirement and request/response contract; the pipeline does the rest.
package api

import (
	"context"
	"net/http"

	"github.com/goliatone/go-kick/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

// Executor runs one request through the authenticated pipeline.
type Executor interface {
	Execute(ctx context.Context, req core.Request, out any) error
}

type API struct {
	Categories  *Categories
	Channels    *Channels
	Rewards     *Rewards
	Chat        *Chat
	Events      *Events
	Kicks       *Kicks
	Livestreams *Livestreams
	Moderation  *Moderation
	Users       *Users
}

type Option func(*options)

type options struct {
	categoryCache repositorycache.CacheService
}

// WithCategoryCache caches category lookups by id.
func WithCategoryCache(cache repositorycache.CacheService) Option {
	return func(o *options) {
		o.categoryCache = cache
	}
}

func New(exec Executor, opts ...Option) *API {
	resolved := options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&resolved)
	}
	return &API{
		Categories:  NewCategories(exec, resolved.categoryCache),
		Channels:    &Channels{exec: exec},
		Rewards:     &Rewards{exec: exec},
		Chat:        &Chat{exec: exec},
		Events:      &Events{exec: exec},
		Kicks:       &Kicks{exec: exec},
		Livestreams: &Livestreams{exec: exec},
		Moderation:  &Moderation{exec: exec},
		Users:       &Users{exec: exec},
	}
}

func invalidQuery(err error, method string, endpoint string) error {
	if err == nil {
		return nil
	}
	return core.NewInvalidRequestError(err, core.RequestDetail{Endpoint: endpoint, Method: method})
}

// firstItem returns the single entity of an "authenticated" lookup.
func firstItem[T any](items []T, endpoint string) (T, error) {
	if len(items) == 0 {
		var zero T
		return zero, core.NewEmptyResponseError(core.RequestDetail{Endpoint: endpoint, Method: http.MethodGet})
	}
	return items[0], nil
}
