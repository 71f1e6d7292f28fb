package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/shopsearch/internal/currency"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/price"
)

// ldOffer is a price/currency pair pulled out of a JSON-LD offer node.
type ldOffer struct {
	amount   float64
	currency string
}

// priceFromJSONLD scans <script type="application/ld+json"> blocks for a
// schema.org Product offer. Blocks may hold a single object, an array, or a
// @graph wrapper; @type values may themselves be arrays.
func (e *Extractor) priceFromJSONLD(doc *goquery.Document, pageURL string) (domain.Price, bool) {
	var found *ldOffer

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true // malformed block, keep scanning
		}

		if offer := findProductOffer(raw); offer != nil {
			found = offer
			return false
		}

		return true
	})

	if found == nil {
		return domain.Price{}, false
	}

	code := currency.Detect(found.currency, currency.Options{})
	if !code.IsKnown() {
		code = e.fallbackCurrency(pageURL)
	}

	return domain.Price{Amount: found.amount, Currency: code}, true
}

// findProductOffer walks an unmarshalled JSON-LD value looking for the first
// product node with a usable offer, recursing into arrays and @graph.
func findProductOffer(node any) *ldOffer {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			if offer := findProductOffer(item); offer != nil {
				return offer
			}
		}
	case map[string]any:
		if isProductType(v["@type"]) {
			if offer := offerFromNode(v["offers"]); offer != nil {
				return offer
			}
		}
		if graph, ok := v["@graph"]; ok {
			return findProductOffer(graph)
		}
	}

	return nil
}

// isProductType reports whether a @type value names a product. The match is
// a case-insensitive substring check tolerant of array-valued types.
func isProductType(typeValue any) bool {
	switch v := typeValue.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), "product")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.Contains(strings.ToLower(s), "product") {
				return true
			}
		}
	}

	return false
}

// offerFromNode reads the price out of an offers value, which may be a
// single offer object or an array of them.
func offerFromNode(offers any) *ldOffer {
	switch v := offers.(type) {
	case []any:
		for _, item := range v {
			if offer := offerFromNode(item); offer != nil {
				return offer
			}
		}
	case map[string]any:
		for _, key := range []string{"price", "lowPrice", "highPrice"} {
			amount := amountFromValue(v[key])
			if amount <= 0 {
				continue
			}

			code, _ := v["priceCurrency"].(string)
			return &ldOffer{amount: amount, currency: code}
		}
	}

	return nil
}

// amountFromValue parses a JSON price value, which sites emit as either a
// number or a string.
func amountFromValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return price.ParseNumericAmount(v)
	case string:
		return price.ParseAmount(v)
	}

	return 0
}
