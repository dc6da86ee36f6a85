package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/pagecache/internal/adapters/cache"
	"github.com/Amund211/pagecache/internal/domain"
	"github.com/Amund211/pagecache/internal/logging"
	"github.com/Amund211/pagecache/internal/ratelimiting"
	"github.com/Amund211/pagecache/internal/reporting"
	"github.com/zeebo/xxh3"
)

const maxPageLength = 100

type errorResponse struct {
	Cause string `json:"cause"`
}

// PageResponse is an encoded api response
type PageResponse struct {
	Body []byte
	ETag string
}

func encodePage(page string) (PageResponse, error) {
	body, err := json.Marshal(domain.MockPageData(page))
	if err != nil {
		return PageResponse{}, fmt.Errorf("failed to marshal page data: %w", err)
	}
	return PageResponse{
		Body: body,
		ETag: fmt.Sprintf(`"%016x"`, xxh3.Hash(body)),
	}, nil
}

// MakeGetPageDataHandler serves the mock page api.
//
// Every response is delayed by delay to make loading states visible to the client.
func MakeGetPageDataHandler(
	responseCache cache.Cache[PageResponse],
	delay time.Duration,
	after func(time.Duration) <-chan time.Time,
	allowedOrigins *AllowedOrigins,
	rateLimiter ratelimiting.RequestRateLimiter,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	onLimitExceeded := func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).InfoContext(r.Context(), "Rate limit exceeded", slog.String("key", rateLimiter.KeyFor(r)))
		writeJSONError(w, "rate limit exceeded", http.StatusTooManyRequests)
	}

	middleware := ComposeMiddlewares(
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		buildMetricsMiddleware("/api"),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(rateLimiter, onLimitExceeded),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		page := r.URL.Query().Get("page")
		if page == "" {
			page = "0"
		}
		if len(page) > maxPageLength {
			writeJSONError(w, "invalid page", http.StatusBadRequest)
			return
		}

		if delay > 0 {
			select {
			case <-after(delay):
			case <-ctx.Done():
				logger.InfoContext(ctx, "Client went away before the response was ready")
				return
			}
		}

		response, _, err := cache.GetOrCreate(ctx, responseCache, page, func() (PageResponse, error) {
			return encodePage(page)
		})
		if err != nil {
			if ctx.Err() != nil {
				logger.InfoContext(ctx, "Client went away while waiting for the response")
				return
			}
			reporting.Report(ctx, err)
			writeJSONError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("ETag", response.ETag)
		w.Header().Set("Cache-Control", "no-cache")

		if r.Header.Get("If-None-Match") == response.ETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(response.Body)
	}

	return middleware(handler)
}

func writeJSONError(w http.ResponseWriter, cause string, statusCode int) {
	data, err := json.Marshal(errorResponse{Cause: cause})
	if err != nil {
		data = []byte(`{"cause":"internal server error"}`)
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}
