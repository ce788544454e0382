// Package cors resolves cross-origin response headers against a configured
// allow-list.
package cors

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	allowHeaders = "Authorization, Content-Type, X-Request-Id"
	allowMethods = "GET, POST, OPTIONS"
)

// Policy validates request origins against an allow-list. Entries are either
// exact origins ("https://app.aprovado.edu") or wildcard hosts ("*.aprovado.edu")
// matching the apex domain and any subdomain.
type Policy struct {
	allowed []string
	logger  *slog.Logger
}

// NewPolicy parses a comma-separated allow-list. An empty list default-denies
// every origin and is logged as a misconfiguration.
func NewPolicy(allowList string, logger *slog.Logger) *Policy {
	var allowed []string
	for _, raw := range strings.Split(allowList, ",") {
		if origin := strings.TrimSpace(raw); origin != "" {
			allowed = append(allowed, origin)
		}
	}
	if len(allowed) == 0 && logger != nil {
		logger.Warn("cors allow-list is empty, all cross-origin requests will be denied")
	}
	return &Policy{allowed: allowed, logger: logger}
}

// Headers computes the CORS response headers for the presented origin.
// The allow-origin header is only present when the origin is allowed; the
// remaining headers are fixed.
func (p *Policy) Headers(origin string) map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Headers": allowHeaders,
		"Access-Control-Allow-Methods": allowMethods,
		"Vary":                         "Origin",
	}
	if origin != "" && p.Allows(origin) {
		headers["Access-Control-Allow-Origin"] = origin
		headers["Access-Control-Allow-Credentials"] = "true"
	}
	return headers
}

// Allows reports whether origin matches the allow-list.
func (p *Policy) Allows(origin string) bool {
	for _, candidate := range p.allowed {
		if candidate == origin {
			return true
		}
		if host, ok := strings.CutPrefix(candidate, "*."); ok && matchesHost(origin, host) {
			return true
		}
	}
	return false
}

// matchesHost reports whether the origin's hostname equals domain or is a
// subdomain of it. Malformed origins never match.
func matchesHost(origin, domain string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	host := parsed.Hostname()
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Middleware applies the computed headers to every response and answers
// preflight OPTIONS requests with an empty 200 before authentication runs.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, value := range p.Headers(r.Header.Get("Origin")) {
			w.Header().Set(key, value)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
