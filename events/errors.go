package events

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

func eventsError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func eventsWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return eventsError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message)
	err.Category = category
	err.Code = code
	err.TextCode = textCode
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func invalidEventError(message string, source error, metadata map[string]any) error {
	return eventsWrapError(
		source,
		goerrors.CategoryBadInput,
		message,
		http.StatusBadRequest,
		core.ErrorInvalidEvent,
		metadata,
	)
}

func unboundActorError(action string, userID int64) error {
	metadata := map[string]any{"action": action}
	if userID != 0 {
		metadata["user_id"] = userID
	}
	return eventsError(
		fmt.Sprintf("events: %s is not available on this actor", action),
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.ErrorBadRequest,
		metadata,
	)
}
