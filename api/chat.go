package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-kick/core"
	"github.com/google/uuid"
)

type ChatMessageType string

const (
	ChatMessageUser ChatMessageType = "user"
	ChatMessageBot  ChatMessageType = "bot"
)

// SendMessageRequest posts to a channel chat. User messages must name the
// broadcaster; bot messages go to the channel of the authenticated user.
type SendMessageRequest struct {
	Type              ChatMessageType `json:"type"`
	BroadcasterUserID int64           `json:"broadcasterUserId,omitempty"`
	Content           string          `json:"content"`
	ReplyToMessageID  string          `json:"replyToMessageId,omitempty"`
}

func (r SendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(ChatMessageUser, ChatMessageBot)),
		validation.Field(&r.BroadcasterUserID, validation.When(r.Type == ChatMessageUser, validation.Required)),
		validation.Field(&r.Content, validation.Required, validation.RuneLength(1, 500)),
		validation.Field(&r.ReplyToMessageID, validation.By(isUUID)),
	)
}

type SentMessage struct {
	IsSent    bool   `json:"isSent"`
	MessageID string `json:"messageId"`
}

type Chat struct {
	exec Executor
}

func (c *Chat) Send(ctx context.Context, req SendMessageRequest) (SentMessage, error) {
	var out SentMessage
	err := c.exec.Execute(ctx, core.Request{
		Operation:   "chat.send",
		Method:      http.MethodPost,
		Path:        "/chat",
		Body:        req,
		Requirement: core.RequireDelegated(core.ScopeChatWrite),
	}, &out)
	if err != nil {
		return SentMessage{}, err
	}
	return out, nil
}

func (c *Chat) Delete(ctx context.Context, messageID string) error {
	messageID = strings.TrimSpace(messageID)
	check := validation.Errors{"messageId": validation.Validate(messageID, validation.Required)}.Filter()
	if err := invalidQuery(check, http.MethodDelete, "/chat/{id}"); err != nil {
		return err
	}
	return c.exec.Execute(ctx, core.Request{
		Operation:   "chat.delete",
		Method:      http.MethodDelete,
		Path:        "/chat/" + url.PathEscape(messageID),
		Requirement: core.RequireDelegated(core.ScopeModerationChatMessageManage),
	}, nil)
}

func isUUID(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return validation.NewError("validation_is_uuid", "must be a valid UUID")
	}
	return nil
}
