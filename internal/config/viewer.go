package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL   = "http://localhost:3000"
	DefaultAPITimeout   = 10 * time.Second
	DefaultMaxCacheSize = 4
)

// ViewerConfig configures the page viewer cli
type ViewerConfig struct {
	API    APICfg   `yaml:"api"`
	Cache  CacheCfg `yaml:"cache"`
	Viewer PagesCfg `yaml:"viewer"`
	// Reports errors to sentry when set
	SentryDSN string `yaml:"sentry_dsn"`
	// Serves prometheus metrics on this address when set, e.g. ":9090"
	MetricsAddr string `yaml:"metrics_addr"`
}

type APICfg struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheCfg struct {
	// Number of pages kept after the viewer moves away from them
	MaxSize int `yaml:"max_size"`
}

type PagesCfg struct {
	// Pages to visit, in order
	Pages []int `yaml:"pages"`
}

func DefaultViewerConfig() *ViewerConfig {
	cfg := &ViewerConfig{}
	cfg.AdjustConfig()
	return cfg
}

// AdjustConfig fills in defaults for unset values
func (cfg *ViewerConfig) AdjustConfig() {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}
	if cfg.Cache.MaxSize == 0 {
		cfg.Cache.MaxSize = DefaultMaxCacheSize
	}
	if len(cfg.Viewer.Pages) == 0 {
		cfg.Viewer.Pages = []int{0, 1, 2, 0}
	}
}

func (cfg *ViewerConfig) Validate() error {
	base, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return fmt.Errorf("%w: api.base_url (%s)", ErrInvalidValue, cfg.API.BaseURL)
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("%w: api.timeout (%s)", ErrInvalidValue, cfg.API.Timeout)
	}
	if cfg.Cache.MaxSize < 0 {
		return fmt.Errorf("%w: cache.max_size (%d)", ErrInvalidValue, cfg.Cache.MaxSize)
	}
	for _, page := range cfg.Viewer.Pages {
		if page < 0 {
			return fmt.Errorf("%w: viewer.pages (%d)", ErrInvalidValue, page)
		}
	}
	return nil
}

// LoadViewerConfig reads the yaml file at path. An empty path gives the defaults.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	if path == "" {
		return DefaultViewerConfig(), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	cfg := &ViewerConfig{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.AdjustConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
