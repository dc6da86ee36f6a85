package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/Amund211/pagecache/internal/config"
	"github.com/Amund211/pagecache/internal/logging"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

var uuidRx = regexp.MustCompile(`[0-9a-f]{8}-?([0-9a-f]{4}-?){3}[0-9a-f]{12}`)
var ipv6HostRx = regexp.MustCompile(`\[:{0,2}([0-9a-f]{0,4}:?){1,8}\]:\d+`)
var ipv4HostRx = regexp.MustCompile(`\b(\d{1,3}\.){3}\d{1,3}:\d+\b`)
var pageRx = regexp.MustCompile(`([?&]page=)[^&"\s]*`)

// sanitizeError strips the parts of an error message that differ between otherwise identical errors
func sanitizeError(err string) string {
	err = uuidRx.ReplaceAllString(err, "<uuid>")
	err = ipv6HostRx.ReplaceAllString(err, "<host>")
	err = ipv4HostRx.ReplaceAllString(err, "<host>")
	err = pageRx.ReplaceAllString(err, "${1}<page>")
	return err
}

func Report(ctx context.Context, err error, extras ...map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	logger := logging.FromContext(ctx)

	if err == nil {
		err = errors.New("No error provided")
	}

	if hub == nil {
		logger.WarnContext(ctx, "Failed to get Sentry hub from context", slog.String("error", err.Error()), slog.Any("extras", extras))
		return
	}

	logger.ErrorContext(
		ctx,
		"Reporting error to Sentry",
		slog.String("error", err.Error()),
		slog.Any("extras", extras),
	)

	hub.WithScope(func(scope *sentry.Scope) {
		meta := MetaFromContext(ctx)
		scope.SetTags(meta.tags)
		for key, value := range meta.extras {
			scope.SetExtra(key, value)
		}
		if !meta.startedAt.IsZero() {
			scope.SetExtra("secondsSinceStart", time.Since(meta.startedAt).Seconds())
		}

		for _, extra := range extras {
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}

		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

func addMetaMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userAgent := r.UserAgent()
		if userAgent == "" {
			userAgent = "<missing>"
		}
		methodPath := fmt.Sprintf("%s %s", r.Method, r.URL.Path)

		ctx = AddTagsToContext(ctx,
			map[string]string{
				"userAgent":  userAgent,
				"methodPath": methodPath,
			},
		)
		if page := r.URL.Query().Get("page"); page != "" {
			ctx = AddExtrasToContext(ctx, map[string]string{"page": page})
		}

		ctx = setStartedAtInContext(ctx, time.Now())

		next(w, r.WithContext(ctx))
	}
}

func initSentry(sentryDSN string, tracesSampleRate float64) error {
	return sentry.Init(sentry.ClientOptions{
		Dsn:              sentryDSN,
		EnableTracing:    true,
		TracesSampleRate: tracesSampleRate,
	})
}

func flush() {
	sentry.Flush(5 * time.Second)
}

func InitSentryMiddleware(sentryDSN string) (func(http.HandlerFunc) http.HandlerFunc, func(), error) {
	err := initSentry(sentryDSN, 1.0/100.0)
	if err != nil {
		return nil, nil, err
	}

	sentryHandler := sentryhttp.New(sentryhttp.Options{})

	// Wrap sentry middleware in a http.HandlerFunc
	middleware := func(next http.HandlerFunc) http.HandlerFunc {
		withAddTags := addMetaMiddleware(next)
		return func(w http.ResponseWriter, r *http.Request) {
			sentryHandler.HandleFunc(withAddTags).ServeHTTP(w, r)
		}
	}

	return middleware, flush, nil
}

func NewSentryMiddlewareOrMock(config config.Config) (func(http.HandlerFunc) http.HandlerFunc, func(), error) {
	if config.SentryDSN() != "" {
		return InitSentryMiddleware(config.SentryDSN())
	}

	if config.IsDevelopment() {
		middleware := func(next http.HandlerFunc) http.HandlerFunc {
			return addMetaMiddleware(next)
		}
		return middleware, func() {}, nil
	}

	return nil, nil, fmt.Errorf("Missing Sentry DSN in non-development environment")
}

// InitSentryForCLI sets up reporting for a process without incoming requests. The returned context
// carries a hub when sentryDSN is set.
func InitSentryForCLI(ctx context.Context, sentryDSN string, command string) (context.Context, func(), error) {
	ctx = AddTagsToContext(ctx, map[string]string{"command": command})
	ctx = setStartedAtInContext(ctx, time.Now())

	if sentryDSN == "" {
		return ctx, func() {}, nil
	}

	if err := initSentry(sentryDSN, 1.0); err != nil {
		return nil, nil, err
	}

	return sentry.SetHubOnContext(ctx, sentry.CurrentHub().Clone()), flush, nil
}
