package http

import (
	"net/http"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/usersdk"
)

type UsersHandler struct {
	UserService *service.UserService
	AuthService *service.AuthService
}

// HandleCreate registers a new user.
//
//	@Summary		Create user
//	@Description	Creates a user account. The username must be unique across all users, deleted ones included.
//	@Description	Creating an admin requires a bearer token belonging to an admin.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		usersdk.CreateUserRequest	true	"New user"
//	@Success		201		{object}	domain.PublicUser
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body or invalid fields"
//	@Failure		403		{object}	httpx.ErrorResponse	"Admin role requested without admin credentials"
//	@Failure		422		{object}	httpx.ErrorResponse	"Username already taken"
//	@Router			/api/v1/users [post].
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req usersdk.CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeServiceError(w, r, domain.NewValidationError("role", "must be admin or user"))
		return
	}

	if role == domain.RoleAdmin {
		if err := h.requireAdmin(r); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	u, err := h.UserService.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
		Inactive: req.Inactive,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, u.Public())
}

// requireAdmin authenticates the optional bearer token on a public route and
// demands an admin.
func (h *UsersHandler) requireAdmin(r *http.Request) error {
	token, ok := httpx.BearerToken(r)
	if !ok {
		return service.ErrForbidden
	}
	actor, err := h.AuthService.AuthenticateRequest(r.Context(), token)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return service.ErrForbidden
	}
	return nil
}

// HandleList returns all users that have not been deleted.
//
//	@Summary	List users
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		domain.PublicUser
//	@Failure	401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Router		/api/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one active user.
//
//	@Summary	Get user
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	domain.PublicUser
//	@Failure	401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure	404	{object}	httpx.ErrorResponse	"No active user with this ID"
//	@Router		/api/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.UserService.GetActive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.Public())
}

// HandleUpdate applies a partial update.
//
//	@Summary		Update user
//	@Description	Replaces the supplied fields. Users may update themselves, admins anyone. Only admins may change roles.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"User ID"
//	@Param			request	body		usersdk.UpdateUserRequest	true	"Fields to change"
//	@Success		200		{object}	domain.PublicUser
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed body or invalid fields"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	httpx.ErrorResponse	"Not allowed to modify this user"
//	@Failure		404		{object}	httpx.ErrorResponse	"No active user with this ID"
//	@Router			/api/v1/users/{id} [put].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}
	id := r.PathValue("id")

	var req usersdk.UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	in := service.UpdateUserInput{
		Name:     req.Name,
		Password: req.Password,
		Inactive: req.Inactive,
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			writeServiceError(w, r, domain.NewValidationError("role", "must be admin or user"))
			return
		}
		in.Role = &role
	}

	if err := service.CanUpdate(actor, id, in); err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.UserService.UpdateActive(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u.Public())
}

// HandleDelete soft deletes a user.
//
//	@Summary	Delete user
//	@Tags		Users
//	@Security	BearerAuth
//	@Param		id	path	string	true	"User ID"
//	@Success	204
//	@Failure	401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure	403	{object}	httpx.ErrorResponse	"Not allowed to modify this user"
//	@Failure	404	{object}	httpx.ErrorResponse	"No active user with this ID"
//	@Router		/api/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}
	id := r.PathValue("id")

	if err := service.CanModify(actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.UserService.DeleteActive(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
