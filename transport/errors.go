package transport

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	return err.WithMetadata(transportMetadata(metadata))
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	err.Category = category
	return err.WithMetadata(transportMetadata(metadata))
}

func transportMetadata(metadata map[string]any) map[string]any {
	out := map[string]any{"adapter": "rest"}
	for key, value := range metadata {
		out[key] = value
	}
	return out
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorInvalidRequest
	case goerrors.CategoryExternal:
		return core.ErrorTransport
	default:
		return core.ErrorInternal
	}
}
