package middleware

import (
	"net/http"
	"time"
)

const timeoutBody = `{"detail":"Request timed out"}`

// Timeout answers 503 with a JSON detail body once a request has run longer
// than timeout. The handler's context is cancelled at that point.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		limited := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Handlers that write a body replace this; the timeout reply keeps it.
			w.Header().Set("Content-Type", "application/json")
			limited.ServeHTTP(w, r)
		})
	}
}
