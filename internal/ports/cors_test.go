package ports_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/pagecache/internal/ports"
	"github.com/stretchr/testify/require"
)

type originRule struct {
	origin  string
	allowed bool
}

func TestCORS(t *testing.T) {
	t.Parallel()
	allowedOrigins, err := ports.NewAllowedOrigins(
		"http://localhost:3000",
		"https://pages.example.com/",
	)
	require.NoError(t, err)

	cases := []originRule{
		{origin: "http://localhost:3000", allowed: true},
		{origin: "https://pages.example.com", allowed: true},
		{origin: "", allowed: false},
		{origin: "localhost:3000", allowed: false},
		{origin: "https://localhost:3000", allowed: false},
		{origin: "http://localhost:3001", allowed: false},
		{origin: "https://www.pages.example.com", allowed: false},
		{origin: "https://pages.example.com.evil.com", allowed: false},
		{origin: "http://pages.example.com", allowed: false},
	}

	handler := ports.BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Hello, World!"))
	})

	for _, c := range cases {
		t.Run(c.origin, func(t *testing.T) {
			t.Parallel()

			t.Run("GET", func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodGet, "/api", nil)
				req.Header.Set("Origin", c.origin)
				w := httptest.NewRecorder()
				handler(w, req)

				// The request always goes through, the browser enforces the policy
				require.Equal(t, http.StatusOK, w.Code)
				body, err := io.ReadAll(w.Body)
				require.NoError(t, err)
				require.Equal(t, "Hello, World!", string(body))
				require.Equal(t, "Origin", w.Header().Get("Vary"))

				if c.allowed {
					require.Equal(t, c.origin, w.Header().Get("Access-Control-Allow-Origin"))
				} else {
					require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				}
			})

			t.Run("OPTIONS", func(t *testing.T) {
				t.Parallel()

				req := httptest.NewRequest(http.MethodOptions, "/api", nil)
				req.Header.Set("Origin", c.origin)
				w := httptest.NewRecorder()
				ports.BuildCORSHandler(allowedOrigins)(w, req)

				require.Equal(t, http.StatusNoContent, w.Code)
				if c.allowed {
					require.Equal(t, c.origin, w.Header().Get("Access-Control-Allow-Origin"))
					require.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))
				} else {
					require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
					require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
				}
			})
		})
	}
}

func TestNewAllowedOrigins(t *testing.T) {
	t.Parallel()

	for _, origin := range []string{"localhost:3000", "example.com", "https://example.com/path", "https://example.com/path/", "ftp://example.com"} {
		t.Run(origin, func(t *testing.T) {
			t.Parallel()

			_, err := ports.NewAllowedOrigins(origin)
			require.Error(t, err)
		})
	}
}
