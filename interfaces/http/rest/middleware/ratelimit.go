package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	appErrors "silo-planner/pkg/errors"
	"silo-planner/pkg/ratelimit"

	"go.uber.org/zap"
)

// RateLimit rejects requests over the limiter's budget with 429.
// Limiter failures let the request through.
func RateLimit(limiter ratelimit.RateLimiter, limit int, window time.Duration, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", retryAfter(window))
				errorHandler.Handle(w, r, appErrors.NewRateLimitError(limit, window.String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(window time.Duration) string {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
