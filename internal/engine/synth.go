package engine

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/shopsearch/internal/currency"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/price"
)

// snippetPricePattern finds a price-looking token in a search snippet:
// either a currency symbol followed by an amount or an amount next to a
// currency code.
var snippetPricePattern = regexp.MustCompile(
	`(?i)(?:[$€£¥₹₩₫₱฿]|usd|eur|gbp|aud|cad|nzd|sgd|myr|rm)\s?\d[\d.,]*`,
)

// snippetPrice returns the first price-looking token in text.
func snippetPrice(text string) (string, bool) {
	match := snippetPricePattern.FindString(text)
	return match, match != ""
}

// synthesizeResult builds the initial, structured-data-only result for a
// merged search item. No network calls happen here: everything comes from
// the search response's pagemap, metatags and snippet.
func (e *Engine) synthesizeResult(candidate mergeCandidate) domain.SearchResult {
	item := candidate.item

	return domain.SearchResult{
		Metadata: domain.Metadata{
			Title: domain.CleanTitle(item.Title),
			Image: e.imageForItem(candidate),
			Price: e.priceForItem(candidate),
			URL:   candidate.link,
		},
		Source:     hostnameOf(candidate.link),
		Snippet:    item.Snippet,
		IsShopping: candidate.isShopping,
	}
}

// priceForItem extracts a price from inline structured data, in confidence
// order: offer pagemap, product pagemap, price meta tags, snippet scan.
func (e *Engine) priceForItem(candidate mergeCandidate) domain.Price {
	item := candidate.item

	if pm := item.Pagemap; pm != nil {
		for _, offer := range pm.Offer {
			if p, ok := e.priceFromPair(offer.Price, offer.PriceCurrency, candidate); ok {
				return p
			}
		}

		for _, product := range pm.Product {
			if p, ok := e.priceFromPair(product.Price, product.PriceCurrency, candidate); ok {
				return p
			}
		}

		for _, tags := range pm.Metatags {
			for _, amountKey := range []string{"product:price:amount", "og:price:amount"} {
				if tags[amountKey] == "" {
					continue
				}
				metaCurrency := tags["product:price:currency"]
				if metaCurrency == "" {
					metaCurrency = tags["og:price:currency"]
				}
				if p, ok := e.priceFromPair(tags[amountKey], metaCurrency, candidate); ok {
					return p
				}
			}
		}
	}

	if token, ok := snippetPrice(item.Snippet); ok {
		amount := price.ParseAmount(token)
		if amount > 0 {
			return domain.Price{
				Amount:   amount,
				Currency: e.currencyForText(token, candidate.link),
			}
		}
	}

	return domain.Price{}
}

// priceFromPair turns a raw amount and optional currency code from
// structured data into a Price. The amount must parse to a positive value.
func (e *Engine) priceFromPair(rawAmount, rawCurrency string, candidate mergeCandidate) (domain.Price, bool) {
	amount := price.ParseAmount(rawAmount)
	if amount <= 0 {
		return domain.Price{}, false
	}

	code := domain.CurrencyCode(strings.ToUpper(strings.TrimSpace(rawCurrency)))
	if !code.IsKnown() {
		code = e.currencyForText(rawAmount+" "+candidate.item.Snippet, candidate.link)
	}

	return domain.Price{Amount: amount, Currency: code}, true
}

// currencyForText detects a currency for text in the context of a result
// link, falling back to the page TLD and then the configured default.
func (e *Engine) currencyForText(text, link string) domain.CurrencyCode {
	code := currency.Detect(text, currency.Options{
		SourceURL:       link,
		DefaultCurrency: e.cfg.DefaultCurrency,
		UserLocation:    e.cfg.UserLocation,
	})
	if code.IsKnown() {
		return code
	}

	if tldCode := currency.FromTLD(link); tldCode.IsKnown() {
		return tldCode
	}

	return e.cfg.DefaultCurrency
}

// imageForItem picks an image from the pagemap, then meta tags, then the
// shopping thumbnail, and finally falls back to a hostname-keyed logo so
// every result renders with something.
func (e *Engine) imageForItem(candidate mergeCandidate) string {
	item := candidate.item

	if pm := item.Pagemap; pm != nil {
		for _, src := range pm.CSEImage {
			if src.Src != "" {
				return src.Src
			}
		}

		for _, src := range pm.CSEThumbnail {
			if src.Src != "" {
				return src.Src
			}
		}

		for _, tags := range pm.Metatags {
			if tags["og:image"] != "" {
				return tags["og:image"]
			}
		}
	}

	if item.Image != nil && item.Image.ThumbnailLink != "" {
		return item.Image.ThumbnailLink
	}

	if host := hostnameOf(candidate.link); host != "" && host != candidate.link {
		return e.cfg.LogoServiceURL + host
	}

	return ""
}
