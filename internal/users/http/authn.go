package http

import (
	"context"

	"github.com/aussiebroadwan/starterkit/internal/users/domain"
	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
)

type ctxKeyUser struct{}

// authenticator adapts AuthService to httpx.Authenticator. The loaded user is
// stored in the context along with its id for the per-user rate limiter.
type authenticator struct {
	auth *service.AuthService
}

func (a authenticator) Authenticate(ctx context.Context, token string) (context.Context, error) {
	u, err := a.auth.AuthenticateRequest(ctx, token)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, ctxKeyUser{}, u)
	ctx = httpx.ContextWithUserID(ctx, u.ID)
	ctx = slogx.With(ctx, "user_id", u.ID)
	return ctx, nil
}

func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKeyUser{}).(domain.User)
	return u, ok
}
