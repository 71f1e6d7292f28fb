// Package common provides shared utilities for command implementations.
package common

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonesrussell/shopsearch/internal/cache"
	"github.com/jonesrussell/shopsearch/internal/config"
	"github.com/jonesrussell/shopsearch/internal/engine"
	"github.com/jonesrussell/shopsearch/internal/extract"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/metrics"
	"github.com/jonesrussell/shopsearch/internal/proxyfetch"
	"github.com/jonesrussell/shopsearch/internal/resolver"
	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// ErrConfigRequired is returned when CommandDeps is built without a config.
var ErrConfigRequired = errors.New("config is required")

// CommandDeps holds common dependencies for all commands. Use this instead
// of context.Value for type-safe dependency injection.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// NewCommandDeps loads configuration and creates the logger.
func NewCommandDeps(cfgFile string, debug bool) (CommandDeps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	if debug {
		cfg.Logger.Level = "debug"
		cfg.Logger.Development = true
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	return CommandDeps{Logger: log, Config: cfg}, nil
}

// Pipeline is the fully wired search stack shared by the CLI and the HTTP
// server.
type Pipeline struct {
	Engine   *engine.Engine
	Resolver *resolver.Resolver
	Cache    *cache.MetadataCache
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// BuildPipeline wires the fetcher, extractor, resolver, cache, search API
// client and engine from configuration.
func BuildPipeline(deps CommandDeps) (*Pipeline, error) {
	if deps.Config == nil {
		return nil, ErrConfigRequired
	}

	cfg := deps.Config
	log := deps.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	fetcher := proxyfetch.NewFetcher(proxyfetch.Config{
		ProxyTemplates: cfg.Proxy.Templates,
		ProxyTimeout:   cfg.Proxy.Timeout,
		UserAgent:      cfg.Proxy.UserAgent,
	}, log.WithComponent("proxyfetch"), m)

	extractor := extract.NewExtractor(
		extract.WithDefaultCurrency(cfg.DefaultCurrency()),
	)

	urlResolver := resolver.New(fetcher, extractor, log.WithComponent("resolver"), m)

	metaCache := cache.New(log.WithComponent("cache"),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMetrics(m),
	)

	client := searchapi.NewClient(cfg.SearchAPI.APIKey, cfg.SearchAPI.EngineID,
		searchapi.WithBaseURL(cfg.SearchAPI.BaseURL),
		searchapi.WithResultCount(cfg.SearchAPI.ResultCount),
	)

	eng := engine.New(client, urlResolver, metaCache, log.WithComponent("engine"), m,
		engine.Config{
			MaxResults:      cfg.Search.MaxResults,
			DefaultCurrency: cfg.DefaultCurrency(),
			UserLocation:    cfg.Search.UserLocation,
			DenyDomains:     cfg.Search.DenyDomains,
		},
	)

	return &Pipeline{
		Engine:   eng,
		Resolver: urlResolver,
		Cache:    metaCache,
		Registry: registry,
		Metrics:  m,
	}, nil
}
