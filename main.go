package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/pagecache/internal/adapters/cache"
	"github.com/Amund211/pagecache/internal/config"
	"github.com/Amund211/pagecache/internal/logging"
	"github.com/Amund211/pagecache/internal/ports"
	"github.com/Amund211/pagecache/internal/ratelimiting"
	"github.com/Amund211/pagecache/internal/reporting"
	"github.com/Amund211/pagecache/internal/telemetry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	apiRefillPerSecond = 10
	apiBurstSize       = 50

	responseCacheTTL = 10 * time.Minute
)

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(logging.NewTracingHandler(slog.NewJSONHandler(os.Stdout, nil))).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	if config.OTelEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(context.Background(), "pagecache")
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	allowedOrigins, err := ports.NewAllowedOrigins(config.AllowedOrigins()...)
	if err != nil {
		fail("Failed to initialize allowed origins", "error", err.Error())
	}

	ipLimiter, stopLimiter := ratelimiting.NewTokenBucketRateLimiter(apiRefillPerSecond, apiBurstSize)
	defer stopLimiter()
	apiRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	responseCache, stopResponseCache := cache.NewTTLCache[ports.PageResponse](responseCacheTTL)
	defer stopResponseCache()

	mux := http.NewServeMux()

	mux.HandleFunc(
		"OPTIONS /api",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /api",
		ports.MakeGetPageDataHandler(
			responseCache,
			config.APIDelay(),
			time.After,
			allowedOrigins,
			apiRateLimiter,
			logger.With("port", "api"),
			sentryMiddleware,
		),
	)

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc(
		"/",
		ports.MakeStaticHandler(config.StaticDir(), logger.With("port", "static")),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", config.Port()), otelhttp.NewHandler(mux, "pagecache"))
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail("Server error", "error", err.Error())
	}
}
