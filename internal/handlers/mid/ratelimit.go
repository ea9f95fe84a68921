package mid

import (
	"log/slog"
	"net/http"

	"github.com/rschio/riskdash/internal/web"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests above the limiter's rate with 429. A nil
// limiter disables the check.
func RateLimit(log *slog.Logger, limiter *rate.Limiter) Middleware {
	if limiter == nil {
		return nil
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WarnContext(r.Context(), "rate limit exceeded", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				web.Respond(r.Context(), w, web.ErrorResponse{Error: "rate limit exceeded", Retriable: true}, http.StatusTooManyRequests)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
