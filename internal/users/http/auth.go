package http

import (
	"net/http"

	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/usersdk"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin exchanges credentials for a token pair.
//
//	@Summary		Login
//	@Description	Unknown usernames and wrong passwords produce the same 401 response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		usersdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	domain.TokenPair
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	httpx.ErrorResponse	"Too many attempts"
//	@Router			/api/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req usersdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleRefresh trades a refresh token for a new pair. The token is read from
// the refresh_token query parameter or, failing that, the JSON body.
//
//	@Summary	Refresh tokens
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		refresh_token	query		string					false	"Refresh token"
//	@Param		request			body		usersdk.RefreshRequest	false	"Refresh token"
//	@Success	200				{object}	domain.TokenPair
//	@Failure	400				{object}	httpx.ErrorResponse	"No refresh token supplied"
//	@Failure	401				{object}	httpx.ErrorResponse	"Invalid or expired refresh token"
//	@Router		/api/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("refresh_token")
	if token == "" {
		var req usersdk.RefreshRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		usersdk.ErrInvalidRequest.WithDescription("refresh_token is required").WriteError(w)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleMe returns the authenticated user.
//
//	@Summary	Current user
//	@Tags		Auth
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	domain.PublicUser
//	@Failure	401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure	404	{object}	httpx.ErrorResponse	"Token owner no longer active"
//	@Router		/api/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.Public())
}
