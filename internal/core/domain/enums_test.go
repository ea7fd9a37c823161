package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCreditRating(t *testing.T) {
	assert.Equal(t, RatingAAA, ParseCreditRating("AAA"))
	assert.Equal(t, RatingAAA, ParseCreditRating("aaa"))
	assert.Equal(t, RatingBB, ParseCreditRating("  bb "))
	assert.Equal(t, RatingD, ParseCreditRating("D"))

	assert.Equal(t, RatingNA, ParseCreditRating("ZZZ"))
	assert.Equal(t, RatingNA, ParseCreditRating(""))
	assert.Equal(t, RatingNA, ParseCreditRating("NA"))
}

func TestCreditRatingIsRated(t *testing.T) {
	for _, r := range CreditRatings {
		assert.True(t, r.IsRated(), "%s should be rated", r)
	}
	assert.False(t, RatingNA.IsRated())
	assert.False(t, CreditRating("").IsRated())
}

func TestParseBondType(t *testing.T) {
	assert.Equal(t, BondTypeGovernment, ParseBondType("GOVERNMENT"))
	assert.Equal(t, BondTypeHighYield, ParseBondType("high_yield"))
	assert.Equal(t, BondTypeCorporate, ParseBondType(" corporate "))

	assert.Equal(t, BondTypeNA, ParseBondType("PERPETUAL"))
	assert.Equal(t, BondTypeNA, ParseBondType(""))
	assert.False(t, BondTypeNA.IsTyped())
	assert.True(t, BondTypeConvertible.IsTyped())
}

func TestParseCurrency(t *testing.T) {
	usd, ok := ParseCurrency("usd")
	assert.True(t, ok)
	assert.Equal(t, "USD", usd.Code)
	assert.Equal(t, int32(2), usd.FractionDigits)

	jpy, ok := ParseCurrency("JPY")
	assert.True(t, ok)
	assert.Equal(t, int32(0), jpy.FractionDigits)

	_, ok = ParseCurrency("BTC")
	assert.False(t, ok)
	_, ok = ParseCurrency("")
	assert.False(t, ok)
}

func TestCurrenciesStableOrder(t *testing.T) {
	list := Currencies()
	assert.Len(t, list, 9)
	assert.Equal(t, "USD", list[0].Code)
	assert.Equal(t, "JPY", list[len(list)-1].Code)
}
