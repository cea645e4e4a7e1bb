package server

import (
	"net/http"
	"slices"
	"strings"
)

const allowAllOrigins = "*"

type OriginChecker struct {
	allowedOrigins []string
}

func NewOriginChecker(allowedOrigins []string) *OriginChecker {
	normalized := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			normalized = append(normalized, strings.ToLower(origin))
		}
	}

	return &OriginChecker{
		allowedOrigins: normalized,
	}
}

// Check is used as the websocket upgrader's CheckOrigin. Requests without an Origin header
// come from non-browser clients and are accepted.
func (c *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return c.IsAllowed(origin)
}

func (c *OriginChecker) IsAllowed(origin string) bool {
	if slices.Contains(c.allowedOrigins, allowAllOrigins) {
		return true
	}

	return slices.Contains(c.allowedOrigins, strings.ToLower(strings.TrimRight(origin, "/")))
}

// CORS answers preflight requests and sets the allow headers for permitted origins.
func (c *OriginChecker) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && c.IsAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
