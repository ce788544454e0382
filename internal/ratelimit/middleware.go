package ratelimit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// KeyFunc extracts the identifier a request is limited by.
type KeyFunc func(r *http.Request) string

// KeyByIP identifies the caller by client IP, honouring X-Forwarded-For.
func KeyByIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

type limitBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// Limit returns middleware enforcing maxRequests per window for endpoint.
//
// A store error is logged and the request is let through: the limiter is a
// throttle, not an authorization gate, and a degraded limiter must not take
// the endpoint down with it.
func Limit(store Store, logger *slog.Logger, endpoint string, maxRequests int, window time.Duration, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = KeyByIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := store.Check(r.Context(), key(r), endpoint, maxRequests, window)
			if err != nil {
				if logger != nil {
					logger.Warn("rate limit check failed", slog.String("endpoint", endpoint), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(res.RetryAfter.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(limitBody{
					Error:      "rate_limit_exceeded",
					Message:    fmt.Sprintf("too many requests, wait %d seconds", retry),
					RetryAfter: retry,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
