package domain

import "strings"

// CreditRating represents a bond credit rating code
type CreditRating string

const (
	RatingAAA CreditRating = "AAA"
	RatingAA  CreditRating = "AA"
	RatingA   CreditRating = "A"
	RatingBBB CreditRating = "BBB"
	RatingBB  CreditRating = "BB"
	RatingB   CreditRating = "B"
	RatingCCC CreditRating = "CCC"
	RatingCC  CreditRating = "CC"
	RatingC   CreditRating = "C"
	RatingD   CreditRating = "D"

	// RatingNA is the unknown sentinel. It parses but is never accepted on a term.
	RatingNA CreditRating = "NA"
)

// CreditRatings lists the accepted rating codes (NA excluded)
var CreditRatings = []CreditRating{
	RatingAAA, RatingAA, RatingA, RatingBBB, RatingBB,
	RatingB, RatingCCC, RatingCC, RatingC, RatingD,
}

// ParseCreditRating parses a rating code, returning RatingNA for unknown input
func ParseCreditRating(code string) CreditRating {
	c := CreditRating(strings.ToUpper(strings.TrimSpace(code)))
	for _, r := range CreditRatings {
		if c == r {
			return r
		}
	}
	return RatingNA
}

// IsRated reports whether the rating is a member of the closed vocabulary
func (r CreditRating) IsRated() bool {
	return r != RatingNA && r != ""
}

// BondType represents a bond classification code
type BondType string

const (
	BondTypeGovernment  BondType = "GOVERNMENT"
	BondTypeMunicipal   BondType = "MUNICIPAL"
	BondTypeCorporate   BondType = "CORPORATE"
	BondTypeConvertible BondType = "CONVERTIBLE"
	BondTypeHighYield   BondType = "HIGH_YIELD"

	// BondTypeNA is the unknown sentinel
	BondTypeNA BondType = "NA"
)

// BondTypes lists the accepted bond type codes (NA excluded)
var BondTypes = []BondType{
	BondTypeGovernment, BondTypeMunicipal, BondTypeCorporate,
	BondTypeConvertible, BondTypeHighYield,
}

// ParseBondType parses a bond type code, returning BondTypeNA for unknown input
func ParseBondType(code string) BondType {
	c := BondType(strings.ToUpper(strings.TrimSpace(code)))
	for _, t := range BondTypes {
		if c == t {
			return t
		}
	}
	return BondTypeNA
}

// IsTyped reports whether the bond type is a member of the closed vocabulary
func (t BondType) IsTyped() bool {
	return t != BondTypeNA && t != ""
}

// Currency represents an ISO currency code with its minor-unit precision
type Currency struct {
	Code           string
	FractionDigits int32
}

// currencies is the closed currency vocabulary
var currencies = map[string]Currency{
	"USD": {Code: "USD", FractionDigits: 2},
	"EUR": {Code: "EUR", FractionDigits: 2},
	"GBP": {Code: "GBP", FractionDigits: 2},
	"CHF": {Code: "CHF", FractionDigits: 2},
	"SGD": {Code: "SGD", FractionDigits: 2},
	"AUD": {Code: "AUD", FractionDigits: 2},
	"CAD": {Code: "CAD", FractionDigits: 2},
	"INR": {Code: "INR", FractionDigits: 2},
	"JPY": {Code: "JPY", FractionDigits: 0},
}

// ParseCurrency resolves an ISO currency code
func ParseCurrency(code string) (Currency, bool) {
	c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Currencies returns the supported currency codes in stable order
func Currencies() []Currency {
	out := make([]Currency, 0, len(currencies))
	for _, code := range []string{"USD", "EUR", "GBP", "CHF", "SGD", "AUD", "CAD", "INR", "JPY"} {
		out = append(out, currencies[code])
	}
	return out
}
