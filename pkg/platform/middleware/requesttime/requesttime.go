// Package requesttime pins a single "now" per request so audit rows, trial expiry
// checks and completion timestamps within one request agree.
package requesttime

import (
	"net/http"
	"time"

	"hostguard/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
