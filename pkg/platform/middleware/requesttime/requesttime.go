// Package requesttime pins one "now" per HTTP request so age calculations,
// due-date checks and timestamps agree within a request.
package requesttime

import (
	"net/http"
	"time"

	"welfarehub/pkg/requestcontext"
)

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
