package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
	"github.com/aussiebroadwan/starterkit/pkg/usersdk"
)

// writeServiceError maps service errors onto API errors. Anything unknown is
// logged and reported as a server error without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		usersdk.ErrValidationFailed.WithFields(verr.Fields).WriteError(w)
	case errors.Is(err, service.ErrValidationFailed):
		usersdk.ErrValidationFailed.WriteError(w)
	case errors.Is(err, service.ErrUsernameConflict):
		usersdk.ErrUsernameConflict.WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		usersdk.ErrNotFound.WriteError(w)
	case errors.Is(err, httpx.ErrMissingBearer):
		usersdk.ErrUnauthorized.WithDescription("missing bearer token").WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		usersdk.ErrUnauthorized.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		usersdk.ErrForbidden.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		usersdk.ErrServerError.WriteError(w)
	}
}

// writeDecodeError reports a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	usersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
}
