package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment variable overrides, so
// SHOPSEARCH_SERVER_ADDRESS overrides server.address.
const envPrefix = "SHOPSEARCH"

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing priority. A missing config file is
// not an error; a malformed one is.
func Load(configPath string) (*Config, error) {
	// Populate the process environment from .env before viper reads it.
	// Absence of the file is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvAliases(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shopsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/shopsearch")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every config key with its default value. Keys must
// be known to viper for environment overrides to reach Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := New()

	v.SetDefault("environment", defaults.Environment)

	v.SetDefault("server.address", defaults.Server.Address)
	v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", defaults.Server.IdleTimeout)

	v.SetDefault("search_api.api_key", defaults.SearchAPI.APIKey)
	v.SetDefault("search_api.engine_id", defaults.SearchAPI.EngineID)
	v.SetDefault("search_api.base_url", defaults.SearchAPI.BaseURL)
	v.SetDefault("search_api.result_count", defaults.SearchAPI.ResultCount)

	v.SetDefault("proxy.templates", defaults.Proxy.Templates)
	v.SetDefault("proxy.timeout", defaults.Proxy.Timeout)
	v.SetDefault("proxy.user_agent", defaults.Proxy.UserAgent)

	v.SetDefault("search.max_results", defaults.Search.MaxResults)
	v.SetDefault("search.default_currency", defaults.Search.DefaultCurrency)
	v.SetDefault("search.user_location", defaults.Search.UserLocation)
	v.SetDefault("search.deny_domains", defaults.Search.DenyDomains)

	v.SetDefault("cache.ttl", defaults.Cache.TTL)

	v.SetDefault("logger.level", defaults.Logger.Level)
	v.SetDefault("logger.encoding", defaults.Logger.Encoding)
	v.SetDefault("logger.development", defaults.Logger.Development)
}

// bindEnvAliases maps well-known unprefixed variables onto config keys so
// existing credentials work without renaming.
func bindEnvAliases(v *viper.Viper) {
	aliases := map[string][]string{
		"search_api.api_key":   {"GOOGLE_API_KEY"},
		"search_api.engine_id": {"GOOGLE_SEARCH_ENGINE_ID", "GOOGLE_CSE_ID"},
	}

	for key, envs := range aliases {
		args := append([]string{key}, envs...)
		// BindEnv only errors on an empty key.
		_ = v.BindEnv(args...)
	}
}
