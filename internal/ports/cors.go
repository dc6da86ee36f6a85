package ports

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// AllowedOrigins is the set of browser origins allowed to call the api
type AllowedOrigins struct {
	origins []string
}

func NewAllowedOrigins(origins ...string) (*AllowedOrigins, error) {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("origin %s should start with http:// or https://", origin)
		}
		trimmed := strings.TrimSuffix(origin, "/")
		if strings.Count(trimmed, "/") != 2 {
			return nil, fmt.Errorf("origin %s should not contain a path", origin)
		}
		normalized = append(normalized, trimmed)
	}
	return &AllowedOrigins{
		origins: normalized,
	}, nil
}

func (allowed *AllowedOrigins) Matches(origin string) bool {
	return origin != "" && slices.Contains(allowed.origins, origin)
}

func BuildCORSMiddleware(allowedOrigins *AllowedOrigins) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if allowedOrigins.Matches(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Expose-Headers", "ETag")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match, X-Request-Id")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

func BuildCORSHandler(allowedOrigins *AllowedOrigins) http.HandlerFunc {
	return BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
