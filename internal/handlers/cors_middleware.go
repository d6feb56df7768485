package handlers

import (
	"net/http"
	"strings"

	"survey-relay-service/internal/config"
)

// WithCORS answers preflights with 200 and decorates every response. An
// empty or "*" allow-list sends a wildcard origin even without an Origin header.
func WithCORS(cfg config.Config) func(http.Handler) http.Handler {
	allowed := make([]string, 0)
	for _, part := range strings.Split(cfg.CORSAllowedOrigins, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		allowed = append(allowed, s)
	}

	allowsAll := len(allowed) == 0
	for _, a := range allowed {
		if a == "*" {
			allowsAll = true
			break
		}
	}

	isAllowed := func(origin string) bool {
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			decorate := false
			switch {
			case allowsAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
				decorate = true
			case origin != "" && isAllowed(origin):
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Origin", origin)
				decorate = true
			}
			if decorate {
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
