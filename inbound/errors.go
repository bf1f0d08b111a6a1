package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-kick/core"
)

// deliveryError builds the rich error answered for a webhook delivery. The
// HTTP code doubles as the status returned to Kick, see StatusOf.
func deliveryError(cause error, message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	var err *goerrors.Error
	if cause != nil {
		err = goerrors.Wrap(cause, category, message)
		err.Category = category
	} else {
		err = goerrors.New(message, category)
	}
	err = err.WithCode(code).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// errUnauthenticated rejects a delivery whose signature did not verify.
func errUnauthenticated(cause error) error {
	return deliveryError(cause, "inbound: request verification failed",
		goerrors.CategoryAuth, http.StatusUnauthorized, core.ErrorUnauthenticatedEvent, nil)
}

// errClaimStore reports a dedup store failure. Kick redelivers on 5xx.
func errClaimStore(cause error, message string, metadata map[string]any) error {
	return deliveryError(cause, message,
		goerrors.CategoryOperation, http.StatusInternalServerError, core.ErrorInternal, metadata)
}

func errBadInput(message string) error {
	return deliveryError(nil, message, goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadRequest, nil)
}

func errInternal(message string) error {
	return deliveryError(nil, message, goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, nil)
}
