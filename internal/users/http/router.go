package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/starterkit/internal/users/service"
	"github.com/aussiebroadwan/starterkit/internal/users/store"
	"github.com/aussiebroadwan/starterkit/pkg/httpx"
	"github.com/aussiebroadwan/starterkit/pkg/slogx"
	"github.com/aussiebroadwan/starterkit/pkg/usersdk"

	_ "github.com/aussiebroadwan/starterkit/api/users" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	info      usersdk.InfoResponse
	startTime time.Time
	logger    *slog.Logger
	store     store.Store

	UserService *service.UserService
	AuthService *service.AuthService
}

// NewRouter builds a router with the global middleware chain. An empty
// corsOrigins list leaves cross origin requests unanswered.
func NewRouter(info usersdk.InfoResponse, st store.Store, logger *slog.Logger, corsOrigins []string) *Router {
	r := &Router{
		Mux:       http.NewServeMux(),
		info:      info,
		startTime: time.Now(),
		store:     st,
		logger:    logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	if len(corsOrigins) > 0 {
		r.middlewares = append(r.middlewares, httpx.CORS(corsOrigins))
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Starterkit User Service API
//	@version		0.1.0
//	@description	User account management with JWT authentication.
//	@description
//	@description				Access and refresh tokens are HS256 signed JWTs.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn resolves the bearer token to an active user for the wrapped handler.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(authenticator{r.AuthService}, writeServiceError)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService: r.UserService,
		AuthService: r.AuthService,
	}

	// POST /users - public sign-up, moderate rate limit by IP
	r.Mux.Handle("POST /api/v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// reads - lenient rate limit by user
	r.Mux.Handle("GET /api/v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /api/v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// writes - self or admin, moderate rate limit by user
	r.Mux.Handle("PUT /api/v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /api/v1/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.authn(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP + username to slow down guessing
	r.Mux.Handle("POST /api/v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	// POST /refresh - strict rate limit by IP
	r.Mux.Handle("POST /api/v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /api/v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// {$} keeps the info handler from swallowing unknown paths
	r.Mux.Handle("GET /{$}",
		httpx.Chain(InfoHandler(r.info),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.info.Version),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.info.Version, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
