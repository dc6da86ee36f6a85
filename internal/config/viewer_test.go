package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Amund211/pagecache/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadViewerConfig(t *testing.T) {
	t.Parallel()

	t.Run("full file", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
api:
  base_url: https://pages.example.com
  timeout: 3s
cache:
  max_size: 8
viewer:
  pages: [3, 1, 3]
sentry_dsn: https://key@sentry.example.com/1
metrics_addr: ":9090"
`)

		cfg, err := config.LoadViewerConfig(path)
		require.NoError(t, err)
		require.Equal(t, &config.ViewerConfig{
			API:         config.APICfg{BaseURL: "https://pages.example.com", Timeout: 3 * time.Second},
			Cache:       config.CacheCfg{MaxSize: 8},
			Viewer:      config.PagesCfg{Pages: []int{3, 1, 3}},
			SentryDSN:   "https://key@sentry.example.com/1",
			MetricsAddr: ":9090",
		}, cfg)
	})

	t.Run("defaults fill in missing values", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
viewer:
  pages: [2]
`)

		cfg, err := config.LoadViewerConfig(path)
		require.NoError(t, err)
		require.Equal(t, config.DefaultAPIBaseURL, cfg.API.BaseURL)
		require.Equal(t, config.DefaultAPITimeout, cfg.API.Timeout)
		require.Equal(t, config.DefaultMaxCacheSize, cfg.Cache.MaxSize)
		require.Equal(t, []int{2}, cfg.Viewer.Pages)
		require.Empty(t, cfg.SentryDSN)
		require.Empty(t, cfg.MetricsAddr)
	})

	t.Run("empty path gives defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.LoadViewerConfig("")
		require.NoError(t, err)
		require.Equal(t, config.DefaultViewerConfig(), cfg)
		require.NoError(t, cfg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadViewerConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadViewerConfig(writeConfig(t, "api: [unterminated"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()

		for name, contents := range map[string]string{
			"base url without scheme": "api:\n  base_url: localhost:3000\n",
			"ftp base url":            "api:\n  base_url: ftp://example.com\n",
			"negative timeout":        "api:\n  timeout: -1s\n",
			"negative cache size":     "cache:\n  max_size: -1\n",
			"negative page":           "viewer:\n  pages: [1, -2]\n",
		} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				_, err := config.LoadViewerConfig(writeConfig(t, contents))
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})
}
