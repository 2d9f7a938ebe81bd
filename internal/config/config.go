package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName is used for the env prefix and the XDG directories.
const AppName = "linkharvest"

// Config holds all application configuration
type Config struct {
	// Scraper configuration
	Scraper ScraperConfig `mapstructure:"scraper" yaml:"scraper"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Server configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ScraperConfig holds scrape-loop configuration
type ScraperConfig struct {
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxPages     int           `mapstructure:"max_pages" yaml:"max_pages"`
	MaxBodySize  int64         `mapstructure:"max_body_size" yaml:"max_body_size"`
	Proxies      []string      `mapstructure:"proxies" yaml:"proxies"`
}

// StorageConfig holds result store configuration
type StorageConfig struct {
	Type string `mapstructure:"type" yaml:"type"` // "sqlite", "postgres", "memory"
	Path string `mapstructure:"path" yaml:"path"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" yaml:"port"`
	Host         string        `mapstructure:"host" yaml:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "text", "json" or "logfmt"
}

// Load loads configuration from file and environment.
// An empty configPath searches the working directory, ./config and the
// XDG config home; a missing file there is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(ConfigDir())
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults are static; decoding them cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	// Scraper defaults
	v.SetDefault("scraper.request_delay", "1s")
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.max_pages", 10)
	v.SetDefault("scraper.max_body_size", 10<<20)
	v.SetDefault("scraper.proxies", []string{})

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.path", filepath.Join(DataDir(), "links.db"))
	v.SetDefault("storage.dsn", "")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional name for the postgres connection string
	_ = v.BindEnv("storage.dsn", "LINKHARVEST_STORAGE_DSN", "DATABASE_URL")
}

// DataDir returns the per-user data directory.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scraper.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}
	if c.Scraper.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Scraper.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Scraper.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.Path == "" {
			return ErrMissingStoragePath
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return ErrMissingStorageDSN
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageType, c.Storage.Type)
	}

	switch c.Logging.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.Logging.Format)
	}

	return nil
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
