package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort       = "3000"
	defaultAPIDelay   = 200 * time.Millisecond
	defaultStaticDir  = "dist"
	developmentOrigin = "http://localhost:3000"
)

type Config struct {
	port           string
	sentryDSN      string
	apiDelay       time.Duration
	staticDir      string
	allowedOrigins []string
	otelEnabled    bool
	env            environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// Artificial latency of the page api
func (c *Config) APIDelay() time.Duration {
	return c.apiDelay
}

func (c *Config) StaticDir() string {
	return c.staticDir
}

// Exact origins allowed to call the page api from a browser
func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, apiDelay: %s, staticDir: %s, allowedOrigins: %v, otelEnabled: %t, ...}",
		string(c.env), c.port, c.apiDelay, c.staticDir, c.allowedOrigins, c.otelEnabled,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("PAGECACHE_ENVIRONMENT")
	if !ok {
		return missingKey("PAGECACHE_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("PAGECACHE_ENVIRONMENT", rawEnv)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return invalidValue("PORT", port)
	}

	apiDelay := defaultAPIDelay
	if rawDelay := os.Getenv("API_DELAY"); rawDelay != "" {
		parsed, err := time.ParseDuration(rawDelay)
		if err != nil || parsed < 0 {
			return invalidValue("API_DELAY", rawDelay)
		}
		apiDelay = parsed
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = defaultStaticDir
	}

	var allowedOrigins []string
	for origin := range strings.SplitSeq(os.Getenv("ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return invalidValue("ALLOWED_ORIGINS", origin)
		}
		allowedOrigins = append(allowedOrigins, strings.TrimSuffix(origin, "/"))
	}
	if len(allowedOrigins) == 0 && env == development {
		allowedOrigins = []string{developmentOrigin}
	}

	otelEnabled := false
	if rawOTel := os.Getenv("OTEL_ENABLED"); rawOTel != "" {
		parsed, err := strconv.ParseBool(rawOTel)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTel)
		}
		otelEnabled = parsed
	}

	sentryDSN := os.Getenv("SENTRY_DSN")

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		port:           port,
		sentryDSN:      sentryDSN,
		apiDelay:       apiDelay,
		staticDir:      staticDir,
		allowedOrigins: allowedOrigins,
		otelEnabled:    otelEnabled,
		env:            env,
	}, nil
}
