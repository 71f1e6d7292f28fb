package engine

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/shopsearch/internal/domain"
)

// placeholderTitles mark pages that answered with a bot wall or error page
// instead of product content. Such metadata never enters the cache.
var placeholderTitles = []string{
	"access denied",
	"access to this page has been denied",
	"robot check",
	"captcha",
	"just a moment",
	"attention required",
	"403 forbidden",
	"page not found",
	"are you a human",
}

// enrich upgrades results that are missing a price or image by resolving
// their product pages. It runs detached from the originating request: every
// failure is swallowed, improvements surface only through onProgress, and
// useful metadata is cached for later queries.
func (e *Engine) enrich(ctx context.Context, results []domain.SearchResult, onProgress ProgressFunc, onSettled func()) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.EnrichmentConcurrency)

	for _, result := range results {
		if !e.needsEnrichment(result) {
			continue
		}

		g.Go(func() error {
			// Work queued behind the concurrency limit is skipped once the
			// request is cancelled.
			if gctx.Err() != nil {
				return nil
			}

			e.enrichOne(gctx, result, onProgress)
			return nil
		})
	}

	// Goroutines never return errors; Wait is only a barrier.
	_ = g.Wait()

	if onSettled != nil {
		onSettled()
	}
	if e.enrichmentSettled != nil {
		e.enrichmentSettled()
	}
}

// enrichOne resolves one result's page, merges useful metadata in, and
// re-emits the improved result. Any failure leaves the initial result
// standing.
func (e *Engine) enrichOne(ctx context.Context, result domain.SearchResult, onProgress ProgressFunc) {
	meta, ok := e.cache.Get(result.URL)
	if !ok {
		resolved, err := e.resolver.Resolve(ctx, result.URL)
		if err != nil {
			e.metrics.RecordEnrichment(false)
			e.log.Debug("enrichment fetch failed", "url", result.URL, "error", err.Error())
			return
		}

		if !isUsefulMetadata(*resolved) {
			e.metrics.RecordEnrichment(false)
			return
		}

		e.cache.Put(result.URL, *resolved)
		meta = *resolved
	}

	merged, improved := e.mergeMetadata(result, meta)
	if !improved {
		e.metrics.RecordEnrichment(false)
		return
	}

	e.metrics.RecordEnrichment(true)

	if onProgress != nil {
		onProgress(merged)
	}
}

// needsEnrichment reports whether a result is still missing a field the
// resolver could supply. A hostname-logo fallback image counts as missing
// since a real product photo would improve it.
func (e *Engine) needsEnrichment(result domain.SearchResult) bool {
	return result.Price.IsAbsent() || e.isFallbackImage(result.Image)
}

// isFallbackImage reports whether an image is empty or the logo fallback.
func (e *Engine) isFallbackImage(image string) bool {
	return image == "" || strings.HasPrefix(image, e.cfg.LogoServiceURL)
}

// isUsefulMetadata reports whether resolved metadata is worth caching and
// merging: a real title plus at least one of price or image.
func isUsefulMetadata(meta domain.Metadata) bool {
	if strings.TrimSpace(meta.Title) == "" {
		return false
	}

	lowered := strings.ToLower(meta.Title)
	for _, placeholder := range placeholderTitles {
		if strings.Contains(lowered, placeholder) {
			return false
		}
	}

	return !meta.Price.IsAbsent() || meta.Image != ""
}

// mergeMetadata fills the initial result's missing fields from resolved
// metadata. Existing fields are kept: the initial synthesis came from
// structured data on the search response and is not downgraded.
func (e *Engine) mergeMetadata(result domain.SearchResult, meta domain.Metadata) (domain.SearchResult, bool) {
	improved := false

	if result.Price.IsAbsent() && !meta.Price.IsAbsent() {
		result.Price = meta.Price
		improved = true
	}

	if e.isFallbackImage(result.Image) && meta.Image != "" {
		result.Image = meta.Image
		improved = true
	}

	if strings.TrimSpace(result.Title) == "" && meta.Title != "" {
		result.Title = domain.CleanTitle(meta.Title)
		improved = true
	}

	return result, improved
}
