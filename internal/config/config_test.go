package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopsearch/internal/config"
	"github.com/jonesrussell/shopsearch/internal/domain"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, domain.USD, cfg.DefaultCurrency())
	assert.NotEmpty(t, cfg.Proxy.Templates)
	assert.Equal(t, 12*time.Second, cfg.Proxy.Timeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shopsearch.yml")

	content := []byte(`
environment: production
server:
  address: ":9090"
search_api:
  api_key: test-key
  engine_id: test-engine
search:
  default_currency: AUD
  user_location: AU
cache:
  ttl: 90s
logger:
  level: debug
  encoding: json
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "test-key", cfg.SearchAPI.APIKey)
	assert.Equal(t, "test-engine", cfg.SearchAPI.EngineID)
	assert.Equal(t, domain.AUD, cfg.DefaultCurrency())
	assert.Equal(t, "AU", cfg.Search.UserLocation)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHOPSEARCH_SERVER_ADDRESS", ":7070")
	t.Setenv("GOOGLE_API_KEY", "env-key")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "env-key", cfg.SearchAPI.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := config.New()
	cfg.Search.DefaultCurrency = "DOUBLOONS"
	require.Error(t, cfg.Validate())

	cfg = config.New()
	cfg.Proxy.Templates = []string{"https://proxy.example.com/fetch"}
	require.Error(t, cfg.Validate())

	cfg = config.New()
	cfg.Server.Address = ""
	require.Error(t, cfg.Validate())
}
