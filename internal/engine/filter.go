package engine

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// mergeCandidate is a search item that survived branch filtering, paired
// with the product page link chosen for it and its originating branch.
type mergeCandidate struct {
	item       searchapi.Item
	link       string
	isShopping bool
}

// denyDomains lists hosts that never point at purchasable product pages.
// Matching is by suffix so subdomains are covered.
var denyDomains = []string{
	"facebook.com",
	"instagram.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"reddit.com",
	"pinterest.com",
	"wikipedia.org",
	"quora.com",
	"tiktok.com",
	"linkedin.com",
	"medium.com",
	"blogspot.com",
	"wordpress.com",
	"tumblr.com",
	"fandom.com",
	"stackexchange.com",
	"stackoverflow.com",
}

// productPathSegments are URL path markers that strongly suggest a product
// detail page.
var productPathSegments = []string{
	"/product/",
	"/products/",
	"/item/",
	"/itm/",
	"/dp/",
	"/gp/product",
	"/p/",
	"/shop/",
	"/buy/",
	"/listing/",
	"/sku/",
}

// assetExtensions mark direct image asset URLs, which render as broken
// product links.
var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg", ".avif", ".bmp", ".ico",
}

// assetPathMarkers are path substrings common to CDN-hosted static assets.
var assetPathMarkers = []string{
	"/cdn/", "/static/", "/assets/", "/thumbs/", "/thumbnails/", "/media/wysiwyg/",
}

// filterWebItems keeps general-search items that pass the deny-list and
// carry at least one product signal.
func filterWebItems(items []searchapi.Item, deny []string) []mergeCandidate {
	kept := make([]mergeCandidate, 0, len(items))

	for _, item := range items {
		link := item.Link
		if link == "" || isDeniedHost(link, deny) {
			continue
		}
		if !hasProductSignal(item) {
			continue
		}

		kept = append(kept, mergeCandidate{item: item, link: link})
	}

	return kept
}

// filterShopItems keeps shopping-branch items whose context link points at
// a real product page rather than the image asset itself.
func filterShopItems(items []searchapi.Item, deny []string) []mergeCandidate {
	kept := make([]mergeCandidate, 0, len(items))

	for _, item := range items {
		link := item.ProductPageLink()
		if link == "" || isDeniedHost(link, deny) {
			continue
		}
		if isAssetURL(link) {
			continue
		}

		kept = append(kept, mergeCandidate{item: item, link: link, isShopping: true})
	}

	return kept
}

// isDeniedHost reports whether the URL's host matches the deny-list,
// including subdomains.
func isDeniedHost(rawURL string, deny []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return true
	}

	for _, denied := range deny {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			return true
		}
	}

	return false
}

// isAssetURL reports whether the URL addresses a static image asset.
func isAssetURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range assetExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	for _, marker := range assetPathMarkers {
		if strings.Contains(path, marker) {
			return true
		}
	}

	return false
}

// hasProductSignal reports whether a general-search item looks like a
// product page: a product-shaped URL path, structured offer or product
// data, a product price meta tag, or a price in the snippet.
func hasProductSignal(item searchapi.Item) bool {
	if parsed, err := url.Parse(item.Link); err == nil {
		path := strings.ToLower(parsed.Path)
		for _, segment := range productPathSegments {
			if strings.Contains(path, segment) {
				return true
			}
		}
	}

	if pm := item.Pagemap; pm != nil {
		if len(pm.Offer) > 0 || len(pm.Product) > 0 {
			return true
		}

		for _, tags := range pm.Metatags {
			if tags["product:price:amount"] != "" || tags["og:price:amount"] != "" {
				return true
			}
			if strings.EqualFold(tags["og:type"], "product") {
				return true
			}
		}
	}

	if _, ok := snippetPrice(item.Snippet); ok {
		return true
	}

	return false
}
