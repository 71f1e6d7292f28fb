package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/shopsearch/internal/domain"
)

func TestCurrencyCodeIsKnown(t *testing.T) {
	t.Parallel()

	known := []domain.CurrencyCode{
		domain.USD, domain.EUR, domain.GBP, domain.JPY, domain.CNY,
		domain.AUD, domain.CAD, domain.NZD, domain.SGD, domain.HKD,
		domain.MYR, domain.INR, domain.KRW, domain.THB, domain.PHP,
		domain.IDR, domain.VND,
	}
	for _, code := range known {
		assert.True(t, code.IsKnown(), "code %q", code)
	}

	unknown := []domain.CurrencyCode{
		domain.Unknown,
		"",
		"DOUBLOONS",
		"US DOLLARS",
		"usd",
		"USD ",
	}
	for _, code := range unknown {
		assert.False(t, code.IsKnown(), "code %q", code)
	}
}
