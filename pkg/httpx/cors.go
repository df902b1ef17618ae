package httpx

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows cross origin requests from the listed origins. Credentials are
// allowed, as are the common methods and any request header. A "*" entry
// allows every origin.
func CORS(origins []string) Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "WWW-Authenticate"},
		AllowCredentials: true,
	})
	return c.Handler
}
