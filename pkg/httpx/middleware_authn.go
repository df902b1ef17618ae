package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/starterkit/pkg/slogx"
)

// ErrMissingBearer is passed to the ErrorWriter when the request carries no
// usable Authorization header.
var ErrMissingBearer = errors.New("httpx: missing bearer token")

// Authenticator turns a raw bearer token into an enriched request context.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (context.Context, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (context.Context, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (context.Context, error) {
	return f(ctx, token)
}

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware requires a bearer token and hands it to a. Failures are
// rendered by onError so callers keep control of their error taxonomy.
func AuthnMiddleware(a Authenticator, onError ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				onError(w, r, ErrMissingBearer)
				return
			}

			ctx, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("authentication failed", "err", err)
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WriteBearerChallenge sets the RFC 6750 WWW-Authenticate header.
func WriteBearerChallenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}
