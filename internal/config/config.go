// Package config provides configuration management for the application. It
// handles loading, validation, and access to configuration values from YAML
// files and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/proxyfetch"
	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Search defaults.
const (
	defaultResultCount     = 12
	defaultDefaultCurrency = "USD"
)

// Cache defaults.
const defaultCacheTTL = 5 * time.Minute

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address" yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address must not be empty")
	}
	return nil
}

// SearchAPIConfig holds the external search API credentials and tuning.
// Empty credentials are allowed at load time; search operations fail with
// a credential error when invoked without them.
type SearchAPIConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	EngineID    string `mapstructure:"engine_id" yaml:"engine_id"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	ResultCount int    `mapstructure:"result_count" yaml:"result_count"`
}

// ProxyConfig holds the proxy-race fetcher settings.
type ProxyConfig struct {
	Templates []string      `mapstructure:"templates" yaml:"templates"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// Validate validates the proxy configuration.
func (c *ProxyConfig) Validate() error {
	for _, template := range c.Templates {
		if err := proxyfetch.ValidateTemplate(template); err != nil {
			return err
		}
	}
	return nil
}

// SearchConfig holds engine-level search behavior.
type SearchConfig struct {
	MaxResults      int      `mapstructure:"max_results" yaml:"max_results"`
	DefaultCurrency string   `mapstructure:"default_currency" yaml:"default_currency"`
	UserLocation    string   `mapstructure:"user_location" yaml:"user_location"`
	DenyDomains     []string `mapstructure:"deny_domains" yaml:"deny_domains"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.DefaultCurrency != "" && !domain.CurrencyCode(c.DefaultCurrency).IsKnown() {
		return fmt.Errorf("unknown default currency %q", c.DefaultCurrency)
	}
	return nil
}

// CacheConfig holds metadata cache settings.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Config represents the application configuration.
type Config struct {
	Environment string          `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	SearchAPI   SearchAPIConfig `mapstructure:"search_api" yaml:"search_api"`
	Proxy       ProxyConfig     `mapstructure:"proxy" yaml:"proxy"`
	Search      SearchConfig    `mapstructure:"search" yaml:"search"`
	Cache       CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Logger      logger.Config   `mapstructure:"logger" yaml:"logger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// DefaultCurrency returns the configured default currency as a typed code.
func (c *Config) DefaultCurrency() domain.CurrencyCode {
	code := domain.CurrencyCode(c.Search.DefaultCurrency)
	if !code.IsKnown() {
		return domain.USD
	}
	return code
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Address:      defaultServerAddress,
			ReadTimeout:  defaultServerReadTimeout,
			WriteTimeout: defaultServerWriteTimeout,
			IdleTimeout:  defaultServerIdleTimeout,
		},
		SearchAPI: SearchAPIConfig{
			BaseURL:     searchapi.DefaultBaseURL,
			ResultCount: defaultResultCount,
		},
		Proxy: ProxyConfig{
			Templates: append([]string(nil), proxyfetch.DefaultProxyTemplates...),
			Timeout:   proxyfetch.DefaultProxyTimeout,
			UserAgent: proxyfetch.DefaultUserAgent,
		},
		Search: SearchConfig{
			MaxResults:      defaultResultCount,
			DefaultCurrency: defaultDefaultCurrency,
		},
		Cache: CacheConfig{
			TTL: defaultCacheTTL,
		},
		Logger: logger.Config{
			Level:    "info",
			Encoding: "console",
		},
	}
}
