// Package price normalizes locale-ambiguous price strings into amounts.
//
// Parsing is deterministic and side-effect free. A result of 0 always means
// "no usable price": unparseable, non-positive, or non-finite input all
// collapse to 0 so downstream code has a single absence signal.
package price

import (
	"math"
	"strconv"
	"strings"
)

// decimalCommaDigits is the trailing digit count that makes a lone comma a
// decimal point ("12,34") rather than a thousands separator ("1,234").
const decimalCommaDigits = 2

// ParseAmount extracts a positive amount from a raw price string.
//
// A value signed negative collapses to 0 before anything else. All other
// characters besides digits, '.' and ',' are stripped. When both separators
// are present, whichever appears later in the string is the decimal point
// and the other is treated as grouping; this resolves "1,234.56" (US)
// versus "1.234,56" (European). A lone comma is a decimal point only when
// followed by exactly two trailing digits.
func ParseAmount(raw string) float64 {
	if isNegative(raw) {
		return 0
	}

	cleaned := stripNonNumeric(raw)
	if cleaned == "" {
		return 0
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European: dot groups, comma is the decimal point.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// US: comma groups, dot is the decimal point.
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if len(cleaned)-lastComma-1 == decimalCommaDigits {
			cleaned = strings.ReplaceAll(cleaned[:lastComma], ",", "") + "." + cleaned[lastComma+1:]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}

	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}

	return amount
}

// ParseNumericAmount normalizes an already-numeric price value.
func ParseNumericAmount(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return raw
}

// FormatAmount renders an amount with two decimal places, the inverse of
// ParseAmount for display values.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// isNegative reports whether the first digit in raw carries a minus sign.
// Only whitespace and currency symbols may sit between the sign and the
// digit, so "t-shirt $19.99" stays positive while "-19.99", "- $19.99" and
// "$-19.99" collapse to 0.
func isNegative(raw string) bool {
	runes := []rune(raw)
	for i, r := range runes {
		if r < '0' || r > '9' {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			switch runes[j] {
			case ' ', '\t', '$', '€', '£', '¥':
				continue
			case '-':
				return true
			default:
				return false
			}
		}
		return false
	}
	return false
}

// stripNonNumeric removes every character except digits and separators.
func stripNonNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
