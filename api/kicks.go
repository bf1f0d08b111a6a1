package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

type KicksEntry struct {
	GiftedAmount int64  `json:"giftedAmount"`
	Rank         int    `json:"rank"`
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
}

type KicksLeaderboard struct {
	Lifetime []KicksEntry `json:"lifetime"`
	Month    []KicksEntry `json:"month"`
	Week     []KicksEntry `json:"week"`
}

type Kicks struct {
	exec Executor
}

// Leaderboard returns the top kicks gifters. A zero top uses the API default.
func (k *Kicks) Leaderboard(ctx context.Context, top int) (KicksLeaderboard, error) {
	params := url.Values{}
	if top != 0 {
		check := validation.Errors{"top": validation.Validate(top, validation.Min(1), validation.Max(100))}.Filter()
		if err := invalidQuery(check, http.MethodGet, "/kicks/leaderboard"); err != nil {
			return KicksLeaderboard{}, err
		}
		params.Set("top", strconv.Itoa(top))
	}
	var out KicksLeaderboard
	err := k.exec.Execute(ctx, core.Request{
		Operation:   "kicks.leaderboard",
		Method:      http.MethodGet,
		Path:        "/kicks/leaderboard",
		Query:       params,
		Requirement: core.RequireScopes(core.ScopeKicksRead),
	}, &out)
	if err != nil {
		return KicksLeaderboard{}, err
	}
	return out, nil
}
