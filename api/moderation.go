package api

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
)

// MaxTimeoutMinutes is the longest timeout the API accepts (one week).
const MaxTimeoutMinutes = 10080

type BanRequest struct {
	BroadcasterUserID int64  `json:"broadcasterUserId"`
	UserID            int64  `json:"userId"`
	Reason            string `json:"reason,omitempty"`
}

func (r BanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BroadcasterUserID, validation.Required),
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Reason, validation.RuneLength(0, 100)),
	)
}

// TimeoutRequest bans a user for Duration minutes.
type TimeoutRequest struct {
	BroadcasterUserID int64  `json:"broadcasterUserId"`
	UserID            int64  `json:"userId"`
	Duration          int    `json:"duration"`
	Reason            string `json:"reason,omitempty"`
}

func (r TimeoutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BroadcasterUserID, validation.Required),
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Duration, validation.Required, validation.Min(1), validation.Max(MaxTimeoutMinutes)),
		validation.Field(&r.Reason, validation.RuneLength(0, 100)),
	)
}

type RemoveBanRequest struct {
	BroadcasterUserID int64 `json:"broadcasterUserId"`
	UserID            int64 `json:"userId"`
}

func (r RemoveBanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BroadcasterUserID, validation.Required),
		validation.Field(&r.UserID, validation.Required),
	)
}

type Moderation struct {
	exec Executor
}

func (m *Moderation) Ban(ctx context.Context, req BanRequest) error {
	return m.send(ctx, "moderation.ban", http.MethodPost, req)
}

func (m *Moderation) Timeout(ctx context.Context, req TimeoutRequest) error {
	return m.send(ctx, "moderation.timeout", http.MethodPost, req)
}

func (m *Moderation) RemoveBan(ctx context.Context, req RemoveBanRequest) error {
	return m.send(ctx, "moderation.remove_ban", http.MethodDelete, req)
}

func (m *Moderation) send(ctx context.Context, operation string, method string, body any) error {
	return m.exec.Execute(ctx, core.Request{
		Operation:   operation,
		Method:      method,
		Path:        "/moderation/bans",
		Body:        body,
		Requirement: core.RequireDelegated(core.ScopeModerationBan),
	}, nil)
}
