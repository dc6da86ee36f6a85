package ports

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/Amund211/pagecache/internal/logging"
)

// MakeStaticHandler serves the files in dir.
//
// Navigation requests for paths without a file extension get index.html so client side routes
// survive a reload.
func MakeStaticHandler(dir string, rootLogger *slog.Logger) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		buildMetricsMiddleware("/"),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		if isHistoryNavigation(r) {
			logging.FromContext(r.Context()).DebugContext(r.Context(), "Rewriting to index", slog.String("path", r.URL.Path))
			r = r.Clone(r.Context())
			// The file server serves index.html for the root and redirects explicit /index.html requests
			r.URL.Path = "/"
			r.URL.RawPath = ""
		}
		fileServer.ServeHTTP(w, r)
	}

	return middleware(handler)
}

func isHistoryNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "text/html") && !strings.Contains(accept, "*/*") {
		return false
	}

	return !strings.Contains(path.Base(r.URL.Path), ".")
}
