package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadRequest              = "KICK_BAD_REQUEST"
	ErrorUnauthorized            = "KICK_UNAUTHORIZED"
	ErrorForbidden               = "KICK_FORBIDDEN"
	ErrorNotFound                = "KICK_NOT_FOUND"
	ErrorTooManyRequests         = "KICK_TOO_MANY_REQUESTS"
	ErrorServerError             = "KICK_SERVER_ERROR"
	ErrorUnexpectedAPIError      = "KICK_UNEXPECTED_API_ERROR"
	ErrorInsufficientScope       = "KICK_INSUFFICIENT_SCOPE"
	ErrorDelegationRequired      = "KICK_DELEGATION_REQUIRED"
	ErrorInvalidRequest          = "KICK_INVALID_REQUEST"
	ErrorUnexpectedResponse      = "KICK_UNEXPECTED_RESPONSE"
	ErrorEmptyResponse           = "KICK_EMPTY_RESPONSE"
	ErrorCredentialRefreshFailed = "KICK_CREDENTIAL_REFRESH_FAILED"
	ErrorUnauthenticatedEvent    = "KICK_UNAUTHENTICATED_EVENT"
	ErrorInvalidEvent            = "KICK_INVALID_EVENT"
	ErrorHandlerFailed           = "KICK_HANDLER_FAILED"
	ErrorSubscriptionRejected    = "KICK_SUBSCRIPTION_REJECTED"
	ErrorOAuth                   = "KICK_OAUTH_FAILED"
	ErrorTransport               = "KICK_TRANSPORT_FAILED"
	ErrorInternal                = "KICK_INTERNAL_ERROR"
)

// RequestDetail is the diagnostic context attached to pipeline errors.
type RequestDetail struct {
	Endpoint     string
	Method       string
	RequestBody  any
	ResponseBody any
	StatusCode   int
	Attempts     int
}

func (d RequestDetail) Metadata() map[string]any {
	metadata := map[string]any{
		"endpoint": d.Endpoint,
		"method":   d.Method,
	}
	if d.RequestBody != nil {
		metadata["request_body"] = d.RequestBody
	}
	if d.ResponseBody != nil {
		metadata["response_body"] = d.ResponseBody
	}
	if d.StatusCode != 0 {
		metadata["status_code"] = d.StatusCode
	}
	if d.Attempts > 0 {
		metadata["attempts"] = d.Attempts
	}
	return metadata
}

// NewAPIError classifies a non-success status into the taxonomy.
func NewAPIError(status int, detail RequestDetail) *goerrors.Error {
	detail.StatusCode = status
	var err *goerrors.Error
	switch status {
	case http.StatusBadRequest:
		err = newKickError("kick: bad request", goerrors.CategoryBadInput, ErrorBadRequest, status)
	case http.StatusUnauthorized:
		err = newKickError("kick: unauthorized", goerrors.CategoryAuth, ErrorUnauthorized, status)
	case http.StatusForbidden:
		err = newKickError("kick: forbidden", goerrors.CategoryAuthz, ErrorForbidden, status)
	case http.StatusNotFound:
		err = newKickError("kick: not found", goerrors.CategoryNotFound, ErrorNotFound, status)
	case http.StatusTooManyRequests:
		err = newKickError("kick: too many requests", goerrors.CategoryRateLimit, ErrorTooManyRequests, status)
	case http.StatusInternalServerError:
		err = newKickError("kick: server error", goerrors.CategoryExternal, ErrorServerError, status)
	default:
		err = newKickError(
			fmt.Sprintf("kick: unexpected api error (%d)", status),
			goerrors.CategoryExternal,
			ErrorUnexpectedAPIError,
			status,
		)
	}
	return err.WithMetadata(detail.Metadata())
}

func NewInsufficientScopeError(required []Scope, missing []Scope, held []Scope) *goerrors.Error {
	return newKickError(
		fmt.Sprintf("kick: insufficient scope, missing %s", joinScopes(missing)),
		goerrors.CategoryAuthz,
		ErrorInsufficientScope,
		http.StatusForbidden,
	).WithMetadata(map[string]any{
		"required_scopes": scopeStrings(required),
		"missing_scopes":  scopeStrings(missing),
		"held_scopes":     scopeStrings(held),
	})
}

func NewDelegationRequiredError(operation string) *goerrors.Error {
	err := newKickError(
		"kick: operation requires a delegated credential",
		goerrors.CategoryAuthz,
		ErrorDelegationRequired,
		http.StatusForbidden,
	)
	if operation = strings.TrimSpace(operation); operation != "" {
		err = err.WithMetadata(map[string]any{"operation": operation})
	}
	return err
}

// NewInvalidRequestError keeps the field errors of a failed request validation.
func NewInvalidRequestError(cause error, detail RequestDetail) *goerrors.Error {
	err := goerrors.FromOzzoValidation(cause, "kick: invalid request body")
	if err == nil {
		err = goerrors.New("kick: invalid request body", goerrors.CategoryValidation)
	}
	err.Category = goerrors.CategoryValidation
	err.TextCode = ErrorInvalidRequest
	err.Code = http.StatusBadRequest
	return err.WithMetadata(detail.Metadata())
}

func NewUnexpectedResponseError(cause error, detail RequestDetail) *goerrors.Error {
	message := "kick: unexpected response shape"
	if cause != nil {
		message = message + ": " + cause.Error()
	}
	err := newKickError(message, goerrors.CategoryExternal, ErrorUnexpectedResponse, http.StatusBadGateway)
	err.Source = cause
	return err.WithMetadata(detail.Metadata())
}

func NewEmptyResponseError(detail RequestDetail) *goerrors.Error {
	return newKickError(
		"kick: expected response data but none was returned",
		goerrors.CategoryExternal,
		ErrorEmptyResponse,
		http.StatusBadGateway,
	).WithMetadata(detail.Metadata())
}

func NewCredentialRefreshError(kind CredentialKind, cause error) *goerrors.Error {
	err := newKickError(
		fmt.Sprintf("kick: %s credential refresh failed", kind),
		goerrors.CategoryAuth,
		ErrorCredentialRefreshFailed,
		http.StatusUnauthorized,
	).WithMetadata(map[string]any{"credential_kind": string(kind)})
	err.Source = cause
	return err
}

func NewUnauthenticatedEventError(reason string) *goerrors.Error {
	return newKickError(
		"kick: unauthenticated event",
		goerrors.CategoryAuth,
		ErrorUnauthenticatedEvent,
		http.StatusUnauthorized,
	).WithMetadata(map[string]any{"reason": reason})
}

// IsKind reports whether err carries the given text code.
func IsKind(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func IsUnauthorized(err error) bool { return IsKind(err, ErrorUnauthorized) }

func IsTooManyRequests(err error) bool { return IsKind(err, ErrorTooManyRequests) }

func IsInsufficientScope(err error) bool { return IsKind(err, ErrorInsufficientScope) }

func IsDelegationRequired(err error) bool { return IsKind(err, ErrorDelegationRequired) }

func IsNotFound(err error) bool { return IsKind(err, ErrorNotFound) }

// MapError normalizes any error into a kick error envelope.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureKickErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureKickErrorEnvelope(mapped)
}

func newKickError(message string, category goerrors.Category, textCode string, code int) *goerrors.Error {
	return goerrors.New(message, category).
		WithTextCode(textCode).
		WithCode(code)
}

func ensureKickErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = kickHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultKickTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultKickTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return ErrorBadRequest
	case goerrors.CategoryValidation:
		return ErrorInvalidRequest
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorForbidden
	case goerrors.CategoryRateLimit:
		return ErrorTooManyRequests
	case goerrors.CategoryExternal:
		return ErrorUnexpectedAPIError
	default:
		return ErrorInternal
	}
}

func kickHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
