// Package resolver turns a single product URL into a Metadata record by
// combining the proxy-racing fetcher with the page extractor.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/metrics"
)

// ErrInvalidURL is returned for input that cannot be normalized into an
// absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid product URL")

// ErrResolveFailed is the single opaque failure surfaced to callers when a
// URL cannot be resolved. Callers cannot distinguish a network failure from
// a non-product page; the detail is logged, not returned.
var ErrResolveFailed = errors.New("could not fetch item details from this URL")

// HTMLFetcher fetches a page's raw HTML.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, targetURL string) (string, error)
}

// PageExtractor parses fetched HTML into Metadata.
type PageExtractor interface {
	Extract(pageURL string, body []byte) (*domain.Metadata, error)
}

// Resolver resolves product URLs to Metadata.
type Resolver struct {
	fetcher   HTMLFetcher
	extractor PageExtractor
	log       logger.Interface
	metrics   *metrics.Metrics
}

// New creates a Resolver.
func New(fetcher HTMLFetcher, extractor PageExtractor, log logger.Interface, m *metrics.Metrics) *Resolver {
	return &Resolver{
		fetcher:   fetcher,
		extractor: extractor,
		log:       log,
		metrics:   m,
	}
}

// Resolve normalizes rawURL, fetches its HTML through the proxy race, and
// extracts a Metadata record. Malformed input fails fast with ErrInvalidURL;
// every downstream failure collapses into ErrResolveFailed.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*domain.Metadata, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		r.metrics.RecordResolve(false)
		return nil, err
	}

	html, err := r.fetcher.FetchHTML(ctx, normalized)
	if err != nil {
		r.metrics.RecordResolve(false)
		r.log.Warn("resolve fetch failed", "url", normalized, "error", err.Error())
		return nil, fmt.Errorf("%w: %s", ErrResolveFailed, normalized)
	}

	meta, err := r.extractor.Extract(normalized, []byte(html))
	if err != nil {
		r.metrics.RecordResolve(false)
		r.log.Warn("resolve extract failed", "url", normalized, "error", err.Error())
		return nil, fmt.Errorf("%w: %s", ErrResolveFailed, normalized)
	}

	r.metrics.RecordResolve(true)
	r.log.Info("resolved product URL",
		"url", normalized,
		"title", meta.Title,
		"has_price", !meta.Price.IsAbsent(),
	)

	return meta, nil
}

// NormalizeURL coerces user input into an absolute http(s) URL, prepending
// https:// when no scheme is present.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" || !strings.Contains(parsed.Host, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	return parsed.String(), nil
}
