package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/auth/ratelimit"
)

// RateLimit spends one token per request. Requests carrying a validated key
// are limited per key at the key's own rate; anonymous requests are limited
// per learner header, falling back to the client address.
func RateLimit(limiter *ratelimit.Limiter, public ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, public) {
				next.ServeHTTP(w, r)
				return
			}

			key, perMinute := limitKey(r)
			if !limiter.Allow(key, perMinute) {
				wait := limiter.RetryAfter(key, perMinute)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) (string, int) {
	if info := apikey.FromContext(r.Context()); info != nil {
		return "key:" + info.ID, info.RateLimit
	}
	if learner := strings.TrimSpace(r.Header.Get(apikey.LearnerHeader)); learner != "" {
		return "learner:" + learner, 0
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host, 0
}
