// Package domain provides the value types shared across the metadata pipeline.
package domain

import (
	"strings"
)

// Price is an immutable amount/currency pair. A zero Amount means the price
// is absent regardless of currency; Amount is never negative.
type Price struct {
	Amount   float64      `json:"amount"`
	Currency CurrencyCode `json:"currency"`
}

// IsAbsent reports whether the price carries no usable amount.
func (p Price) IsAbsent() bool {
	return p.Amount <= 0
}

// Metadata is a resolved product record for a single URL.
type Metadata struct {
	Title string `json:"title"`
	Image string `json:"image,omitempty"`
	Price Price  `json:"price"`
	URL   string `json:"url"`
}

// SearchResult is a Metadata enriched with search-branch provenance.
// Entries are created once as low-confidence initial results and may be
// upgraded in place at most once by background enrichment.
type SearchResult struct {
	Metadata
	Source     string `json:"source"`
	Snippet    string `json:"snippet,omitempty"`
	IsShopping bool   `json:"is_shopping,omitempty"`
}

// NormalizeURLKey returns the deduplication identity for a product URL:
// lowercased with any trailing slash stripped.
func NormalizeURLKey(rawURL string) string {
	key := strings.ToLower(strings.TrimSpace(rawURL))
	return strings.TrimSuffix(key, "/")
}

// titleSuffixSeparators are the separators sites use to append their name
// to a product title, checked in order.
var titleSuffixSeparators = []string{" - ", " | ", " – ", " — "}

// CleanTitle strips a trailing " - Site Name" / " | Site Name" style suffix.
// Only the last occurrence is removed, and only when something is left over.
func CleanTitle(title string) string {
	cleaned := strings.TrimSpace(title)

	for _, sep := range titleSuffixSeparators {
		idx := strings.LastIndex(cleaned, sep)
		if idx <= 0 {
			continue
		}

		head := strings.TrimSpace(cleaned[:idx])
		if head != "" {
			return head
		}
	}

	return cleaned
}
