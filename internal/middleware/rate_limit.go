package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v9"

	"github.com/pkordes/stridelog/internal/metrics"
)

// RequestRateLimiter is satisfied by *redis_rate.Limiter.
type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// NewRateLimit allows allowedPerMin requests per minute across all callers
// of the wrapped routes, keyed by name. Rejected requests get 429 with a
// Retry-After header. Limiter errors fail open and are logged.
func NewRateLimit(limiter RequestRateLimiter, name string, allowedPerMin int, m *metrics.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	limit := redis_rate.PerMinute(allowedPerMin)
	key := "ratelimit:" + name
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				log.WarnContext(r.Context(), "rate limiter unavailable", "limiter", name, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.CounterRateLimited.Inc()
			}
			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate_limited",
				fmt.Sprintf("retry after %d seconds", secs))
		})
	}
}
