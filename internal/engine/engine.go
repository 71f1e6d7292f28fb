// Package engine orchestrates product search: a dual-branch search API
// fetch, filtering and deduplication, immediate best-effort results, and
// detached background enrichment through the metadata resolver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/shopsearch/internal/cache"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/metrics"
	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// Default engine configuration.
const (
	// DefaultMaxResults caps the merged result list.
	DefaultMaxResults = 12

	// DefaultLogoServiceURL serves hostname-keyed logo images used as the
	// image fallback for results without any pagemap image.
	DefaultLogoServiceURL = "https://logo.clearbit.com/"

	// defaultEnrichmentConcurrency bounds parallel enrichment fetches.
	defaultEnrichmentConcurrency = 4
)

// ErrNoResults distinguishes "the upstream answered but filtering removed
// everything" from an upstream failure, so callers can pick fallback UI.
var ErrNoResults = errors.New("no product results for query")

// ProgressFunc receives each result as it becomes available or improves.
// For any single URL it is invoked at most twice: once for the initial
// low-confidence entry and at most once more after enrichment.
type ProgressFunc func(result domain.SearchResult)

// SearchClient is the dual-branch search API surface.
type SearchClient interface {
	HasCredentials() bool
	Search(ctx context.Context, query string) ([]searchapi.Item, error)
	ImageSearch(ctx context.Context, query string) ([]searchapi.Item, error)
}

// MetadataResolver resolves a single product URL.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string) (*domain.Metadata, error)
}

// Config holds engine configuration.
type Config struct {
	// MaxResults caps the merged result list.
	MaxResults int
	// DefaultCurrency is assumed when a result carries a price without any
	// currency signal.
	DefaultCurrency domain.CurrencyCode
	// UserLocation is an ISO country code hint for bare-dollar prices.
	UserLocation string
	// LogoServiceURL is the hostname-keyed logo fallback endpoint.
	LogoServiceURL string
	// DenyDomains extends the built-in non-shopping domain deny-list.
	DenyDomains []string
	// EnrichmentConcurrency bounds parallel enrichment fetches.
	EnrichmentConcurrency int
}

// WithDefaults returns a copy of the config with defaults applied for
// zero-value fields.
func (c Config) WithDefaults() Config {
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	if !c.DefaultCurrency.IsKnown() {
		c.DefaultCurrency = domain.USD
	}
	if c.LogoServiceURL == "" {
		c.LogoServiceURL = DefaultLogoServiceURL
	}
	if c.EnrichmentConcurrency <= 0 {
		c.EnrichmentConcurrency = defaultEnrichmentConcurrency
	}
	return c
}

// Engine is the product search engine. A single instance (and its shared
// metadata cache) serves all queries for the process lifetime.
type Engine struct {
	client   SearchClient
	resolver MetadataResolver
	cache    *cache.MetadataCache
	log      logger.Interface
	metrics  *metrics.Metrics
	cfg      Config

	// enrichmentSettled, when set, is called after a search's detached
	// enrichment pass has fully settled. Tests use it to await the
	// fire-and-forget work deterministically.
	enrichmentSettled func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnrichmentSettled installs a hook invoked when a search's background
// enrichment has fully settled.
func WithEnrichmentSettled(hook func()) Option {
	return func(e *Engine) {
		e.enrichmentSettled = hook
	}
}

// New creates a search engine.
func New(
	client SearchClient,
	metaResolver MetadataResolver,
	metaCache *cache.MetadataCache,
	log logger.Interface,
	m *metrics.Metrics,
	cfg Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		client:   client,
		resolver: metaResolver,
		cache:    metaCache,
		log:      log,
		metrics:  m,
		cfg:      cfg.WithDefaults(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Search runs a product search for query.
//
// When query is itself an absolute http(s) URL the search APIs are skipped
// and the URL is resolved directly. Otherwise both search branches are
// fetched concurrently, filtered, merged (general-search hits before
// shopping hits), deduplicated by normalized URL and capped. Every
// surviving result is synthesized from inline structured data, emitted via
// onProgress, and returned; results still missing a price or image are then
// enriched by a detached background pass that re-emits improvements through
// onProgress and never surfaces its failures.
//
// Cancelling ctx aborts the dual fetch and any in-flight enrichment;
// enrichment work not yet started is skipped.
func (e *Engine) Search(ctx context.Context, query string, onProgress ProgressFunc) ([]domain.SearchResult, error) {
	return e.search(ctx, query, onProgress, nil)
}

// SearchStream behaves like Search and additionally invokes onSettled once
// no further onProgress calls can happen for this query, including after an
// error. Streaming transports use it to know when to close.
func (e *Engine) SearchStream(
	ctx context.Context,
	query string,
	onProgress ProgressFunc,
	onSettled func(),
) ([]domain.SearchResult, error) {
	results, err := e.search(ctx, query, onProgress, onSettled)
	if err != nil && onSettled != nil {
		onSettled()
	}
	return results, err
}

func (e *Engine) search(
	ctx context.Context,
	query string,
	onProgress ProgressFunc,
	onSettled func(),
) ([]domain.SearchResult, error) {
	start := time.Now()

	if directURL, ok := asDirectURL(query); ok {
		return e.searchDirect(ctx, directURL, onProgress, onSettled, start)
	}

	if !e.client.HasCredentials() {
		e.metrics.RecordSearch(false, 0, time.Since(start).Seconds())
		return nil, searchapi.ErrMissingCredentials
	}

	webItems, shopItems, err := e.dualFetch(ctx, query)
	if err != nil {
		e.metrics.RecordSearch(false, 0, time.Since(start).Seconds())
		return nil, err
	}

	merged := e.mergeAndDedupe(filterWebItems(webItems, e.denySet()), filterShopItems(shopItems, e.denySet()))
	if len(merged) == 0 {
		e.metrics.RecordSearch(true, 0, time.Since(start).Seconds())
		return []domain.SearchResult{}, ErrNoResults
	}

	results := make([]domain.SearchResult, 0, len(merged))
	for _, item := range merged {
		result := e.synthesizeResult(item)
		results = append(results, result)

		if onProgress != nil {
			onProgress(result)
		}
	}

	e.metrics.RecordSearch(true, len(results), time.Since(start).Seconds())
	e.log.Info("search produced initial results",
		"query", query,
		"count", len(results),
	)

	// Fire-and-forget: the caller gets the initial list now; improvements
	// arrive through onProgress only.
	go e.enrich(ctx, results, onProgress, onSettled)

	return results, nil
}

// searchDirect handles the URL short-circuit: the query is a product link,
// so resolve it directly. Failures here are hard errors because the user
// asked for this one URL.
func (e *Engine) searchDirect(
	ctx context.Context,
	directURL string,
	onProgress ProgressFunc,
	onSettled func(),
	start time.Time,
) ([]domain.SearchResult, error) {
	meta, err := e.resolver.Resolve(ctx, directURL)
	if err != nil {
		e.metrics.RecordSearch(false, 0, time.Since(start).Seconds())
		return nil, err
	}

	result := domain.SearchResult{
		Metadata: *meta,
		Source:   hostnameOf(meta.URL),
	}

	if onProgress != nil {
		onProgress(result)
	}

	e.metrics.RecordSearch(true, 1, time.Since(start).Seconds())

	if onSettled != nil {
		onSettled()
	}
	if e.enrichmentSettled != nil {
		e.enrichmentSettled()
	}

	return []domain.SearchResult{result}, nil
}

// dualFetch issues both search branches concurrently. The general branch is
// the primary data source, so its failure fails the operation; a shopping
// branch failure degrades to an empty list.
func (e *Engine) dualFetch(ctx context.Context, query string) (webItems, shopItems []searchapi.Item, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, webErr := e.client.Search(gctx, query)
		if webErr != nil {
			return fmt.Errorf("web search: %w", webErr)
		}
		webItems = items
		return nil
	})

	g.Go(func() error {
		items, shopErr := e.client.ImageSearch(gctx, query)
		if shopErr != nil {
			e.log.Warn("shopping branch failed, continuing without it", "error", shopErr.Error())
			return nil
		}
		shopItems = items
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, waitErr
	}

	return webItems, shopItems, nil
}

// mergeAndDedupe concatenates the filtered branches (web first), removes
// duplicates by normalized URL, and caps the list.
func (e *Engine) mergeAndDedupe(webItems, shopItems []mergeCandidate) []mergeCandidate {
	seen := make(map[string]bool, len(webItems)+len(shopItems))
	merged := make([]mergeCandidate, 0, e.cfg.MaxResults)

	for _, candidate := range append(webItems, shopItems...) {
		key := domain.NormalizeURLKey(candidate.link)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		merged = append(merged, candidate)
		if len(merged) >= e.cfg.MaxResults {
			break
		}
	}

	return merged
}

// denySet returns the deny-list including configured extras. The built-in
// list is never appended to in place.
func (e *Engine) denySet() []string {
	if len(e.cfg.DenyDomains) == 0 {
		return denyDomains
	}

	combined := make([]string, 0, len(denyDomains)+len(e.cfg.DenyDomains))
	combined = append(combined, denyDomains...)
	return append(combined, e.cfg.DenyDomains...)
}

// asDirectURL reports whether query is already an absolute http(s) URL.
func asDirectURL(query string) (string, bool) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "", false
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	return trimmed, true
}

// hostnameOf returns the hostname of a URL, or the input when unparseable.
func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}
	return parsed.Hostname()
}
