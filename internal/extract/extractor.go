// Package extract turns raw product-page HTML into Metadata records.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"

	"github.com/jonesrussell/shopsearch/internal/currency"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/price"
)

// ErrNoTitle is returned when no title can be extracted. A titleless page is
// treated as not being a real product page (for example an access-denied
// interstitial), so this is a hard failure.
var ErrNoTitle = errors.New("could not extract title")

// priceMetaTags are the meta properties that carry a price, in priority order.
var priceMetaTags = []string{
	"meta[property='product:price:amount']",
	"meta[property='og:price:amount']",
	"meta[itemprop='price']",
}

// currencyMetaTags are the meta properties that carry a currency code.
var currencyMetaTags = []string{
	"meta[property='product:price:currency']",
	"meta[property='og:price:currency']",
	"meta[itemprop='priceCurrency']",
}

// symbolPricePattern matches currency-symbol-prefixed amounts in page text.
var symbolPricePattern = regexp.MustCompile(
	`(?i)(?:[$€£¥₹₩₱฿₫]|US\$|A\$|C\$|NZ\$|S\$|HK\$|RM|Rp)\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?`,
)

// codePricePattern matches amounts followed by a three-letter currency code.
var codePricePattern = regexp.MustCompile(
	`(?i)\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?\s?(?:USD|EUR|GBP|JPY|CNY|AUD|CAD|NZD|SGD|HKD|MYR|INR|KRW|THB|PHP|IDR|VND)\b`,
)

// Extractor parses product pages. The zero value is not usable; construct
// with NewExtractor.
type Extractor struct {
	defaultCurrency domain.CurrencyCode
	prefs           currency.PreferenceStore
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDefaultCurrency sets the currency assumed when a page carries a price
// but no currency signal.
func WithDefaultCurrency(code domain.CurrencyCode) Option {
	return func(e *Extractor) {
		e.defaultCurrency = code
	}
}

// WithPreferenceStore injects the stored user currency preference lookup.
func WithPreferenceStore(prefs currency.PreferenceStore) Option {
	return func(e *Extractor) {
		e.prefs = prefs
	}
}

// NewExtractor creates a page extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		defaultCurrency: domain.USD,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses HTML into a Metadata record for pageURL.
//
// Price strategies run in strict priority order, first success wins:
// OpenGraph/product meta tags, then JSON-LD offers, then a regex sweep
// over the visible text. A missing title is a hard error.
func (e *Extractor) Extract(pageURL string, body []byte) (*domain.Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	og := opengraph.NewOpenGraph()
	if ogErr := og.ProcessHTML(bytes.NewReader(body)); ogErr != nil {
		// OpenGraph parse failures are soft; goquery fallbacks still apply.
		og = opengraph.NewOpenGraph()
	}

	title := extractTitle(og, doc)
	if title == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoTitle, pageURL)
	}

	meta := &domain.Metadata{
		Title: domain.CleanTitle(title),
		Image: extractImage(og, doc, pageURL),
		URL:   pageURL,
	}

	meta.Price = e.extractPrice(doc, pageURL)

	return meta, nil
}

// extractTitle prefers the OpenGraph title, then the <title> tag.
func extractTitle(og *opengraph.OpenGraph, doc *goquery.Document) string {
	if og.Title != "" {
		return strings.TrimSpace(og.Title)
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractImage returns the first og:image, resolved against the page URL
// when relative.
func extractImage(og *opengraph.OpenGraph, doc *goquery.Document, pageURL string) string {
	var img string

	if len(og.Images) > 0 && og.Images[0].URL != "" {
		img = og.Images[0].URL
	} else if content, exists := doc.Find("meta[property='og:image']").First().Attr("content"); exists {
		img = strings.TrimSpace(content)
	}

	if img == "" || strings.HasPrefix(img, "http") {
		return img
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return img
	}
	rel, err := url.Parse(img)
	if err != nil {
		return img
	}

	return base.ResolveReference(rel).String()
}

// extractPrice runs the price strategies in priority order.
func (e *Extractor) extractPrice(doc *goquery.Document, pageURL string) domain.Price {
	if p, ok := e.priceFromMetaTags(doc, pageURL); ok {
		return p
	}

	if p, ok := e.priceFromJSONLD(doc, pageURL); ok {
		return p
	}

	if p, ok := e.priceFromText(doc, pageURL); ok {
		return p
	}

	return domain.Price{Currency: domain.Unknown}
}

// priceFromMetaTags reads OpenGraph/product price meta tags.
func (e *Extractor) priceFromMetaTags(doc *goquery.Document, pageURL string) (domain.Price, bool) {
	var amount float64
	for _, selector := range priceMetaTags {
		content, exists := doc.Find(selector).First().Attr("content")
		if !exists {
			continue
		}
		if amount = price.ParseAmount(content); amount > 0 {
			break
		}
	}

	if amount <= 0 {
		return domain.Price{}, false
	}

	for _, selector := range currencyMetaTags {
		if content, exists := doc.Find(selector).First().Attr("content"); exists {
			if code := currency.Detect(content, currency.Options{}); code.IsKnown() {
				return domain.Price{Amount: amount, Currency: code}, true
			}
		}
	}

	return domain.Price{Amount: amount, Currency: e.fallbackCurrency(pageURL)}, true
}

// priceFromText applies the regex fallback over the page's visible text.
func (e *Extractor) priceFromText(doc *goquery.Document, pageURL string) (domain.Price, bool) {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	text := body.Text()

	match := symbolPricePattern.FindString(text)
	if match == "" {
		match = codePricePattern.FindString(text)
	}
	if match == "" {
		return domain.Price{}, false
	}

	amount := price.ParseAmount(match)
	if amount <= 0 {
		return domain.Price{}, false
	}

	code := currency.Detect(match, currency.Options{
		SourceURL:       pageURL,
		DefaultCurrency: e.defaultCurrency,
		Preferences:     e.prefs,
	})
	if !code.IsKnown() {
		code = e.fallbackCurrency(pageURL)
	}

	return domain.Price{Amount: amount, Currency: code}, true
}

// fallbackCurrency resolves the currency for a price that carried no signal
// of its own: the page TLD first, then the configured default.
func (e *Extractor) fallbackCurrency(pageURL string) domain.CurrencyCode {
	if code := currency.FromTLD(pageURL); code.IsKnown() {
		return code
	}
	return e.defaultCurrency
}
