package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RefreshThrottle limits manual refreshes to one per period with the given
// burst, shared by every caller
func RefreshThrottle(period time.Duration, burst int) func(http.Handler) http.Handler {
	if period <= 0 {
		period = 10 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Every(period), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				w.Header().Set("Retry-After", formatRetryAfter(delay))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// formatRetryAfter formats d as whole seconds for the Retry-After header
func formatRetryAfter(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
