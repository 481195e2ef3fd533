package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/Dosada05/hackathon-registration/limiter"
)

// RateLimit rejects clients that exceed l with 429 and the given message.
// When the limiter itself fails the request is let through: losing the
// counter must not block registrations.
func RateLimit(l limiter.Limiter, message string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := l.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.Error("rate limiter unavailable", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			if !decision.Allowed {
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				writeError(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the key rate limits are counted under. Forwarding headers only
// count when chi's RealIP middleware is mounted in front of it.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
