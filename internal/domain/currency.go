package domain

// CurrencyCode identifies a currency in ISO 4217 form, or Unknown when no
// currency signal could be found.
type CurrencyCode string

// Supported currency codes.
const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	JPY CurrencyCode = "JPY"
	CNY CurrencyCode = "CNY"
	AUD CurrencyCode = "AUD"
	CAD CurrencyCode = "CAD"
	NZD CurrencyCode = "NZD"
	SGD CurrencyCode = "SGD"
	HKD CurrencyCode = "HKD"
	MYR CurrencyCode = "MYR"
	INR CurrencyCode = "INR"
	KRW CurrencyCode = "KRW"
	THB CurrencyCode = "THB"
	PHP CurrencyCode = "PHP"
	IDR CurrencyCode = "IDR"
	VND CurrencyCode = "VND"

	// Unknown means no currency signal at all was found.
	Unknown CurrencyCode = "UNKNOWN"
)

// knownCurrencies is the set of concrete codes IsKnown accepts.
var knownCurrencies = map[CurrencyCode]bool{
	USD: true,
	EUR: true,
	GBP: true,
	JPY: true,
	CNY: true,
	AUD: true,
	CAD: true,
	NZD: true,
	SGD: true,
	HKD: true,
	MYR: true,
	INR: true,
	KRW: true,
	THB: true,
	PHP: true,
	IDR: true,
	VND: true,
}

// IsKnown reports whether the code is one of the supported currencies.
// Arbitrary strings, the empty string and Unknown all report false.
func (c CurrencyCode) IsKnown() bool {
	return knownCurrencies[c]
}
