package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Amund211/pagecache/internal/adapters/pageprovider"
	"github.com/Amund211/pagecache/internal/app"
	"github.com/Amund211/pagecache/internal/config"
	"github.com/Amund211/pagecache/internal/databind"
	"github.com/Amund211/pagecache/internal/logging"
	"github.com/Amund211/pagecache/internal/metrics"
	"github.com/Amund211/pagecache/internal/metrics/otelmetrics"
	"github.com/Amund211/pagecache/internal/metrics/prom"
	"github.com/Amund211/pagecache/internal/reporting"
	"github.com/Amund211/pagecache/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

func parsePages(raw string) ([]int, error) {
	var pages []int
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		page, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q: %w", part, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	baseURL := flag.String("base-url", "", "base url of the page api")
	rawPages := flag.String("pages", "", "comma separated pages to visit")
	maxCacheSize := flag.Int("max-cache-size", 0, "number of pages kept after leaving them")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address")
	withOTel := flag.Bool("otel", false, "export traces and metrics over otlp")
	flag.Parse()

	logger := slog.New(logging.NewTracingHandler(slog.NewJSONHandler(os.Stderr, nil))).With("command", "pageviewer")

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	cfg, err := config.LoadViewerConfig(*configPath)
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.API.BaseURL = *baseURL
		case "pages":
			cfg.Viewer.Pages, flagErr = parsePages(*rawPages)
		case "max-cache-size":
			cfg.Cache.MaxSize = *maxCacheSize
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})
	if flagErr != nil {
		fail("Invalid flags", "error", flagErr.Error())
	}
	cfg.AdjustConfig()
	if err := cfg.Validate(); err != nil {
		fail("Invalid config", "error", err.Error())
	}

	ctx := logging.AddToContext(context.Background(), logger)

	if *withOTel {
		shutdown, err := telemetry.SetupOTelSDK(ctx, "pageviewer")
		if err != nil {
			fail("Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
	}

	ctx, flush, err := reporting.InitSentryForCLI(ctx, cfg.SentryDSN, "pageviewer")
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()

	registry := prometheus.NewRegistry()
	otelAdapter, err := otelmetrics.New()
	if err != nil {
		fail("Failed to set up cache metrics", "error", err.Error())
	}
	cacheMetrics := metrics.Tee{prom.New(registry, "pagecache", "pages"), otelAdapter}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err.Error())
			}
		}()
		defer server.Close()
		logger.Info("Serving metrics", "addr", cfg.MetricsAddr)
	}

	httpClient := &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	provider, err := pageprovider.NewHTTPPageProvider(httpClient, cfg.API.BaseURL)
	if err != nil {
		fail("Failed to initialize page provider", "error", err.Error())
	}

	pagesApp := app.New(app.Options{
		GetPage:      provider.GetPage,
		MaxCacheSize: cfg.Cache.MaxSize,
		Metrics:      cacheMetrics,
	})
	store := pagesApp.NewStore(ctx, logger.With("component", "store"))
	defer store.Close()

	binding := databind.Mount(store, pagesApp.DataViewer(func(props app.ViewerProps, _ app.ViewerActions) {
		fmt.Println(app.Describe(props))
	}))

	// The viewer clamps the selected page to the counter
	store.Dispatch(app.Increment(slices.Max(cfg.Viewer.Pages)))
	store.Wait()

	for _, page := range cfg.Viewer.Pages {
		binding.Actions().SetCurrentPage(page)
		store.Wait()
	}

	binding.Unmount()
	fmt.Printf("cached pages: %s\n", strings.Join(store.State().Sample.API.CachedKeys(), ", "))
}
