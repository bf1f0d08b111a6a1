package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

type User struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
	UserID         int64  `json:"userId"`
}

func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.UserID, validation.Required),
		validation.Field(&u.Name, validation.Required),
	)
}

type Users struct {
	exec Executor
}

// Authenticated returns the user behind a delegated credential.
func (u *Users) Authenticated(ctx context.Context) (User, error) {
	var out []User
	err := u.exec.Execute(ctx, core.Request{
		Operation:   "users.authenticated",
		Method:      http.MethodGet,
		Path:        "/users",
		Requirement: core.RequireDelegated(core.ScopeUserRead),
	}, &out)
	if err != nil {
		return User{}, err
	}
	return firstItem(out, "/users")
}

func (u *Users) ByIDs(ctx context.Context, ids ...int64) ([]User, error) {
	params := url.Values{}
	for _, id := range ids {
		params.Add("id", strconv.FormatInt(id, 10))
	}
	var out []User
	err := u.exec.Execute(ctx, core.Request{
		Operation:   "users.by_ids",
		Method:      http.MethodGet,
		Path:        "/users",
		Query:       params,
		Requirement: core.RequireScopes(core.ScopeUserRead),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
