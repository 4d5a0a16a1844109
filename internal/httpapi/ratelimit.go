package httpapi

import (
	"net/http"
	"strconv"

	"archreview/internal/middleware"
	"archreview/internal/utils"
)

// rateLimited caps requests per token subject. It must run after the JWT
// middleware. Limiter errors let the request through.
func (d *Dependencies) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := middleware.GetAdminID(r.Context())

		allowed, remaining, resetAt, err := d.Limiter.AllowWithDetails(r.Context(), subject, d.ReviewLimit)
		if err != nil {
			d.Logger.Error().Err(err).Str("subject", subject).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if remaining >= 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.ReviewLimit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		}
		if !allowed {
			utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
