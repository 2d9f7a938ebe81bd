package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Second, cfg.Scraper.RequestDelay)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 10, cfg.Scraper.MaxPages)
	assert.Empty(t, cfg.Scraper.Proxies)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, filepath.Join(DataDir(), "links.db"), cfg.Storage.Path)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  request_delay: 250ms
  max_pages: 3
  proxies:
    - https://gw1.example.com/
    - socks5://127.0.0.1:9050
storage:
  type: memory
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.RequestDelay)
	assert.Equal(t, 3, cfg.Scraper.MaxPages)
	assert.Equal(t, []string{"https://gw1.example.com/", "socks5://127.0.0.1:9050"}, cfg.Scraper.Proxies)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "json", cfg.Logging.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scraper:\n  max_pages: 3\n"), 0o600))

	t.Setenv("LINKHARVEST_SCRAPER_MAX_PAGES", "7")
	t.Setenv("DATABASE_URL", "postgres://user:pw@localhost/links")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Scraper.MaxPages)
	assert.Equal(t, "postgres://user:pw@localhost/links", cfg.Storage.DSN)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Scraper.RequestDelay = -time.Second },
			wantErr: ErrInvalidRequestDelay,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Scraper.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero max pages",
			mutate:  func(c *Config) { c.Scraper.MaxPages = 0 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "negative body size",
			mutate:  func(c *Config) { c.Scraper.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: ErrMissingStoragePath,
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Storage.Type = "postgres" },
			wantErr: ErrMissingStorageDSN,
		},
		{
			name:    "unknown storage",
			mutate:  func(c *Config) { c.Storage.Type = "s3" },
			wantErr: ErrUnknownStorageType,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrUnknownLogFormat,
		},
		{
			name:   "zero delay is allowed",
			mutate: func(c *Config) { c.Scraper.RequestDelay = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scraper.MaxPages = 4
	cfg.Scraper.Proxies = []string{"https://gw.example.com/"}
	require.NoError(t, WriteFile(path, cfg, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Scraper.MaxPages)
	assert.Equal(t, time.Second, loaded.Scraper.RequestDelay)
	assert.Equal(t, []string{"https://gw.example.com/"}, loaded.Scraper.Proxies)

	err = WriteFile(path, cfg, false)
	assert.ErrorIs(t, err, ErrConfigExists)

	assert.NoError(t, WriteFile(path, cfg, true))
}
