package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// PartyErrors
var (
	ErrPartyNotFound      = errors.New("party not found")
	ErrPartyAlreadyExists = errors.New("party already exists")
	ErrWrongRole          = errors.New("party role not permitted for this operation")
)

// TermErrors
var (
	ErrTermNotFound            = errors.New("term not found")
	ErrIssuerNotBank           = errors.New("issuer must have the Bank role")
	ErrParValueOutOfRange      = errors.New("par value must be between 100 and 1000")
	ErrMaturityTooSoon         = errors.New("maturity date must be more than 30 days from now")
	ErrUnratedTerm             = errors.New("credit rating is not a recognised rating code")
	ErrUntypedTerm             = errors.New("bond type is not a recognised bond type code")
	ErrNoUnitsOffered          = errors.New("units available must be greater than zero")
	ErrRedemptionNotZero       = errors.New("redemption available must be zero at creation")
	ErrPaymentFrequencyInvalid = errors.New("payment frequency must be between 1 and 12 months")
	ErrTermFieldImmutable      = errors.New("issuer, currency, bond name, par value and payment frequency are immutable")
	ErrUnitsOutOfBounds        = errors.New("units available must stay between zero and total units")
	ErrUnitConservation        = errors.New("redemption available must equal total units minus units available")
)

// BondErrors
var (
	ErrBondNotFound      = errors.New("bond not found")
	ErrNotLatestTerm     = errors.New("term version is stale")
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrIssuerAsInvestor  = errors.New("issuer cannot invest in its own term")
	ErrBondMatured       = errors.New("bond already matured")
	ErrBondNotMatured    = errors.New("bond has not reached maturity")
	ErrSessionTimeout    = errors.New("counterparty did not reply in time")
)

// CashErrors
var (
	ErrCashStateNotFound  = errors.New("no cash state for currency")
	ErrDuplicateCashState = errors.New("more than one cash state for currency")
	ErrInsufficientCash   = errors.New("insufficient cash balance")
	ErrUnknownCurrency    = errors.New("unknown currency code")
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
)
