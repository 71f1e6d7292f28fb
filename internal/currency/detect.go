// Package currency infers a currency code from free text, HTML fragments,
// or URL hints.
package currency

import (
	"strings"

	"github.com/jonesrussell/shopsearch/internal/domain"
)

// PreferenceStore is an injected key-value lookup for the stored user
// currency preference. Implementations must be safe for concurrent use.
type PreferenceStore interface {
	PreferredCurrency() (domain.CurrencyCode, bool)
}

// Options carries the disambiguation context for Detect.
type Options struct {
	// SourceURL, when set, lets the bare-dollar case disambiguate via TLD.
	SourceURL string
	// DefaultCurrency is an explicit caller override for the bare-dollar case.
	DefaultCurrency domain.CurrencyCode
	// UserLocation is an ISO country code used as a weaker bare-dollar hint.
	UserLocation string
	// Preferences is the stored user preference lookup; may be nil.
	Preferences PreferenceStore
}

// signal associates a currency with the markers that identify it explicitly.
// Signals are scanned in order: unambiguous codes, words and symbols come
// before the bare dollar sign.
type signal struct {
	code    domain.CurrencyCode
	markers []string
}

// explicitSignals lists unambiguous markers per currency. Local dollar
// variants ("A$", "AU$") are explicit; a bare "$" is handled separately.
var explicitSignals = []signal{
	{domain.MYR, []string{"myr", "rm"}},
	{domain.EUR, []string{"eur", "€", "euro"}},
	{domain.GBP, []string{"gbp", "£"}},
	{domain.JPY, []string{"jpy", "¥", "yen"}},
	{domain.CNY, []string{"cny", "rmb", "yuan", "元"}},
	{domain.AUD, []string{"aud", "a$", "au$"}},
	{domain.CAD, []string{"cad", "c$", "ca$"}},
	{domain.NZD, []string{"nzd", "nz$"}},
	{domain.SGD, []string{"sgd", "s$"}},
	{domain.HKD, []string{"hkd", "hk$"}},
	{domain.INR, []string{"inr", "₹", "rs.", "rupee"}},
	{domain.KRW, []string{"krw", "₩", "won"}},
	{domain.THB, []string{"thb", "฿", "baht"}},
	{domain.PHP, []string{"php", "₱"}},
	{domain.IDR, []string{"idr", "rp"}},
	{domain.VND, []string{"vnd", "₫", "dong"}},
	{domain.USD, []string{"usd", "us$"}},
}

// tldCurrencies maps URL host suffixes to the currency of that market.
var tldCurrencies = map[string]domain.CurrencyCode{
	".com.au": domain.AUD,
	".au":     domain.AUD,
	".co.uk":  domain.GBP,
	".uk":     domain.GBP,
	".ca":     domain.CAD,
	".co.nz":  domain.NZD,
	".nz":     domain.NZD,
	".sg":     domain.SGD,
	".hk":     domain.HKD,
	".my":     domain.MYR,
	".in":     domain.INR,
	".jp":     domain.JPY,
	".cn":     domain.CNY,
	".kr":     domain.KRW,
	".th":     domain.THB,
	".ph":     domain.PHP,
	".id":     domain.IDR,
	".vn":     domain.VND,
	".de":     domain.EUR,
	".fr":     domain.EUR,
	".it":     domain.EUR,
	".es":     domain.EUR,
	".nl":     domain.EUR,
	".ie":     domain.EUR,
}

// locationCurrencies maps user country codes to their currency.
var locationCurrencies = map[string]domain.CurrencyCode{
	"US": domain.USD,
	"AU": domain.AUD,
	"GB": domain.GBP,
	"UK": domain.GBP,
	"CA": domain.CAD,
	"NZ": domain.NZD,
	"SG": domain.SGD,
	"HK": domain.HKD,
	"MY": domain.MYR,
	"IN": domain.INR,
	"JP": domain.JPY,
	"CN": domain.CNY,
	"KR": domain.KRW,
	"TH": domain.THB,
	"PH": domain.PHP,
	"ID": domain.IDR,
	"VN": domain.VND,
	"DE": domain.EUR,
	"FR": domain.EUR,
	"IT": domain.EUR,
	"ES": domain.EUR,
	"NL": domain.EUR,
	"IE": domain.EUR,
}

// Detect scans text for a currency signal and returns the matching code.
//
// Explicit codes, words and symbols win over the ambiguous bare "$", which
// is disambiguated via the source URL's TLD, then the caller default, then
// the user location, then the stored preference, and finally USD. With no
// signal at all the result is Unknown.
func Detect(text string, opts Options) domain.CurrencyCode {
	lowered := strings.ToLower(text)

	for _, sig := range explicitSignals {
		for _, marker := range sig.markers {
			if containsMarker(lowered, marker) {
				return sig.code
			}
		}
	}

	if strings.Contains(lowered, "$") {
		return disambiguateDollar(opts)
	}

	return domain.Unknown
}

// containsMarker reports whether marker occurs in the lowered text. Markers
// that begin or end with a letter must sit on a word boundary on that side,
// so "rm" matches "RM 99" but not "confirm".
func containsMarker(lowered, marker string) bool {
	for from := 0; ; {
		idx := strings.Index(lowered[from:], marker)
		if idx < 0 {
			return false
		}
		idx += from

		if markerBounded(lowered, marker, idx) {
			return true
		}

		from = idx + 1
	}
}

// markerBounded checks the word-boundary requirement for a match at idx.
// Digits do not break the boundary so "RM99" still counts as a match.
func markerBounded(lowered, marker string, idx int) bool {
	if isLetterByte(marker[0]) && idx > 0 && isLetterByte(lowered[idx-1]) {
		return false
	}

	end := idx + len(marker)
	if isLetterByte(marker[len(marker)-1]) && end < len(lowered) && isLetterByte(lowered[end]) {
		return false
	}

	return true
}

// isLetterByte reports whether b is an ASCII letter.
func isLetterByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// disambiguateDollar resolves a bare "$" using contextual hints in fixed
// priority order.
func disambiguateDollar(opts Options) domain.CurrencyCode {
	if code := FromTLD(opts.SourceURL); code.IsKnown() {
		return code
	}

	if opts.DefaultCurrency.IsKnown() {
		return opts.DefaultCurrency
	}

	if code, ok := locationCurrencies[strings.ToUpper(opts.UserLocation)]; ok {
		return code
	}

	if opts.Preferences != nil {
		if code, ok := opts.Preferences.PreferredCurrency(); ok && code.IsKnown() {
			return code
		}
	}

	return domain.USD
}

// FromTLD infers a currency from the host suffix of a URL or hostname.
// Returns Unknown when the suffix is not one of the mapped markets.
func FromTLD(rawURL string) domain.CurrencyCode {
	host := hostOf(rawURL)
	if host == "" {
		return domain.Unknown
	}

	// Longer suffixes (".com.au") must win over shorter ones (".au"), so
	// check two-label suffixes before single-label ones.
	for _, suffix := range []string{twoLabelSuffix(host), oneLabelSuffix(host)} {
		if suffix == "" {
			continue
		}
		if code, ok := tldCurrencies[suffix]; ok {
			return code
		}
	}

	return domain.Unknown
}

// hostOf extracts a lowercased hostname from a URL-ish string without
// requiring a scheme.
func hostOf(rawURL string) string {
	host := strings.ToLower(strings.TrimSpace(rawURL))
	if host == "" {
		return ""
	}

	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	return host
}

// twoLabelSuffix returns the final two dot-separated labels as a suffix,
// e.g. "shop.example.com.au" -> ".com.au".
func twoLabelSuffix(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}
	return "." + parts[len(parts)-2] + "." + parts[len(parts)-1]
}

// oneLabelSuffix returns the final label as a suffix, e.g. ".au".
func oneLabelSuffix(host string) string {
	idx := strings.LastIndex(host, ".")
	if idx < 0 {
		return ""
	}
	return host[idx:]
}
