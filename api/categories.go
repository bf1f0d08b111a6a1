package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const categoryCacheKeyPrefix = "go-kick::category::v1"

type CategorySummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
}

func (c CategorySummary) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
}

type Category struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
	ViewerCount int64    `json:"viewerCount"`
}

func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
	)
}

type categorySearch struct {
	Query string `json:"q"`
	Page  int    `json:"page"`
}

func (s categorySearch) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Query, validation.Required),
		validation.Field(&s.Page, validation.Min(1)),
	)
}

type Categories struct {
	exec  Executor
	cache repositorycache.CacheService
}

// NewCategories builds the category endpoints; a nil cache disables caching.
func NewCategories(exec Executor, cache repositorycache.CacheService) *Categories {
	return &Categories{exec: exec, cache: cache}
}

// Search lists categories matching query. A zero page requests the first page.
func (c *Categories) Search(ctx context.Context, query string, page int) ([]CategorySummary, error) {
	search := categorySearch{Query: query, Page: page}
	if err := invalidQuery(search.Validate(), http.MethodGet, "/categories"); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("q", query)
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	var out []CategorySummary
	err := c.exec.Execute(ctx, core.Request{
		Operation: "categories.search",
		Method:    http.MethodGet,
		Path:      "/categories",
		Query:     params,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Categories) Get(ctx context.Context, id int64) (Category, error) {
	endpoint := fmt.Sprintf("/categories/%d", id)
	check := validation.Errors{"id": validation.Validate(id, validation.Required, validation.Min(int64(1)))}.Filter()
	if err := invalidQuery(check, http.MethodGet, endpoint); err != nil {
		return Category{}, err
	}
	if c.cache == nil {
		return c.fetch(ctx, id)
	}
	return repositorycache.GetOrFetch(ctx, c.cache, CategoryCacheKey(id), func(ctx context.Context) (Category, error) {
		return c.fetch(ctx, id)
	})
}

// Invalidate drops a cached category.
func (c *Categories) Invalidate(ctx context.Context, id int64) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, CategoryCacheKey(id))
}

func (c *Categories) fetch(ctx context.Context, id int64) (Category, error) {
	var out Category
	err := c.exec.Execute(ctx, core.Request{
		Operation: "categories.get",
		Method:    http.MethodGet,
		Path:      fmt.Sprintf("/categories/%d", id),
	}, &out)
	if err != nil {
		return Category{}, err
	}
	return out, nil
}

// CategoryCacheKey is go-kick::category::v1::<id>.
func CategoryCacheKey(id int64) string {
	return categoryCacheKeyPrefix + "::" + strconv.FormatInt(id, 10)
}
