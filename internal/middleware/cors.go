package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS admits browser front ends served from origins. An empty list or one
// containing "*" admits any origin. Cookies are never accepted; the bearer
// token travels in the Authorization header.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		// 401 carries WWW-Authenticate and 429 carries Retry-After.
		ExposedHeaders: []string{"Retry-After", "WWW-Authenticate", "X-Request-ID"},
		MaxAge:         600,
	}).Handler
}
