package services

import (
	"context"
	"testing"
	"time"

	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTermInput() *CreateTermInput {
	return &CreateTermInput{
		BondName:         "Highland 2030",
		InterestRate:     0.032,
		ParValue:         1000,
		UnitsAvailable:   1200,
		MaturityDate:     domain.FormatDate(time.Now().AddDate(2, 0, 0)),
		BondType:         "GOVERNMENT",
		Currency:         "USD",
		CreditRating:     "AAA",
		PaymentFrequency: 2,
	}
}

func TestCreateTerm(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	term, txID, err := f.termSvc.CreateTerm(ctx, "BankA", validTermInput())
	require.NoError(t, err)
	require.NotEmpty(t, txID)

	assert.Equal(t, 1, term.Version)
	assert.Equal(t, "BankA", term.Issuer)
	assert.Equal(t, 1200, term.TotalUnits)
	assert.Equal(t, 1200, term.UnitsAvailable)
	assert.Equal(t, 0, term.RedemptionAvailable)
	assert.Equal(t, string(domain.StatusActive), term.BondStatus)
	assert.Empty(t, term.InvestorSet())
	assert.Equal(t, 1, f.mem.CommitCount())

	latest, err := f.terms.LatestByLinearID(ctx, term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, term.RefID, latest.RefID)
}

func TestCreateTermValidation(t *testing.T) {
	tests := []struct {
		name    string
		issuer  string
		mutate  func(*CreateTermInput)
		wantErr error
	}{
		{
			name:    "observer cannot issue",
			issuer:  "Observer",
			mutate:  func(in *CreateTermInput) {},
			wantErr: domain.ErrIssuerNotBank,
		},
		{
			name:    "central bank cannot issue",
			issuer:  "CentralBank",
			mutate:  func(in *CreateTermInput) {},
			wantErr: domain.ErrIssuerNotBank,
		},
		{
			name:    "par value below range",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.ParValue = 99 },
			wantErr: domain.ErrParValueOutOfRange,
		},
		{
			name:    "par value above range",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.ParValue = 1001 },
			wantErr: domain.ErrParValueOutOfRange,
		},
		{
			name:    "negative interest rate",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.InterestRate = -0.01 },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "zero payment frequency",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.PaymentFrequency = 0 },
			wantErr: domain.ErrPaymentFrequencyInvalid,
		},
		{
			name:    "payment frequency above a year",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.PaymentFrequency = 13 },
			wantErr: domain.ErrPaymentFrequencyInvalid,
		},
		{
			name:    "no units offered",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.UnitsAvailable = 0 },
			wantErr: domain.ErrNoUnitsOffered,
		},
		{
			name:    "redemption pool must start empty",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.RedemptionAvailable = 5 },
			wantErr: domain.ErrRedemptionNotZero,
		},
		{
			name:   "maturity too soon",
			issuer: "BankA",
			mutate: func(in *CreateTermInput) {
				in.MaturityDate = domain.FormatDate(time.Now().AddDate(0, 0, 10))
			},
			wantErr: domain.ErrMaturityTooSoon,
		},
		{
			name:    "unknown currency",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.Currency = "THB" },
			wantErr: domain.ErrUnknownCurrency,
		},
		{
			name:    "unknown credit rating",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.CreditRating = "ZZZ" },
			wantErr: domain.ErrUnratedTerm,
		},
		{
			name:    "unknown bond type",
			issuer:  "BankA",
			mutate:  func(in *CreateTermInput) { in.BondType = "PERPETUAL" },
			wantErr: domain.ErrUntypedTerm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			input := validTermInput()
			tt.mutate(input)

			_, _, err := f.termSvc.CreateTerm(context.Background(), tt.issuer, input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.mem.CommitCount(), "a rejected term must not commit")
		})
	}
}

func TestCreateTermRejectsMalformedDate(t *testing.T) {
	f := newLedgerFixture()
	input := validTermInput()
	input.MaturityDate = "2030-06-01"

	_, _, err := f.termSvc.CreateTerm(context.Background(), "BankA", input)
	assert.Error(t, err)
	assert.Equal(t, 0, f.mem.CommitCount())
}

func TestValidateTermUpdate(t *testing.T) {
	f := newLedgerFixture()
	old := f.createTerm(1200)

	t.Run("valid sale", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.UnitsAvailable = 1150
		updated.RedemptionAvailable = 50
		assert.NoError(t, ValidateTermUpdate(old, updated))
	})

	t.Run("issuer immutable", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.Issuer = "BankB"
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrTermFieldImmutable)
	})

	t.Run("currency immutable", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.Currency = "EUR"
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrTermFieldImmutable)
	})

	t.Run("par value immutable", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.ParValue = 500
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrTermFieldImmutable)
	})

	t.Run("units cannot go negative", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.UnitsAvailable = -1
		updated.RedemptionAvailable = updated.TotalUnits + 1
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrUnitsOutOfBounds)
	})

	t.Run("units cannot exceed total", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.UnitsAvailable = old.TotalUnits + 1
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrUnitsOutOfBounds)
	})

	t.Run("unit conservation", func(t *testing.T) {
		updated := NextTermVersion(old)
		updated.UnitsAvailable = 1150
		updated.RedemptionAvailable = 40
		assert.ErrorIs(t, ValidateTermUpdate(old, updated), domain.ErrUnitConservation)
	})
}

func TestListActiveFilters(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	termA := f.createTerm(1200)
	termB, _, err := f.termSvc.CreateTerm(ctx, "BankA", &CreateTermInput{
		BondName:         "Lowland 2031",
		InterestRate:     0.045,
		ParValue:         500,
		UnitsAvailable:   800,
		MaturityDate:     domain.FormatDate(time.Now().AddDate(3, 0, 0)),
		BondType:         "CORPORATE",
		Currency:         "USD",
		CreditRating:     "BBB",
		PaymentFrequency: 6,
	})
	require.NoError(t, err)

	t.Run("credit rating round trip", func(t *testing.T) {
		terms, err := f.termSvc.ListActive(ctx, &repositories.TermFilter{CreditRating: "AAA"})
		require.NoError(t, err)
		require.Len(t, terms, 1)
		assert.Equal(t, termA.LinearID, terms[0].LinearID)
	})

	t.Run("currency", func(t *testing.T) {
		terms, err := f.termSvc.ListActive(ctx, &repositories.TermFilter{Currency: "USD"})
		require.NoError(t, err)
		assert.Len(t, terms, 2)

		terms, err = f.termSvc.ListActive(ctx, &repositories.TermFilter{Currency: "EUR"})
		require.NoError(t, err)
		assert.Empty(t, terms)
	})

	t.Run("maturity comparisons", func(t *testing.T) {
		terms, err := f.termSvc.ListActive(ctx, &repositories.TermFilter{
			MaturityDate: &termA.MaturityDate,
			MaturityCmp:  repositories.MaturityEqual,
		})
		require.NoError(t, err)
		require.Len(t, terms, 1)
		assert.Equal(t, termA.LinearID, terms[0].LinearID)

		terms, err = f.termSvc.ListActive(ctx, &repositories.TermFilter{
			MaturityDate: &termB.MaturityDate,
			MaturityCmp:  repositories.MaturityLess,
		})
		require.NoError(t, err)
		require.Len(t, terms, 1)
		assert.Equal(t, termA.LinearID, terms[0].LinearID)

		terms, err = f.termSvc.ListActive(ctx, &repositories.TermFilter{
			MaturityDate: &termA.MaturityDate,
			MaturityCmp:  repositories.MaturityGreater,
		})
		require.NoError(t, err)
		require.Len(t, terms, 1)
		assert.Equal(t, termB.LinearID, terms[0].LinearID)
	})
}

func TestNextTermVersion(t *testing.T) {
	f := newLedgerFixture()
	old := f.createTerm(100)

	next := NextTermVersion(old)
	assert.NotEqual(t, old.RefID, next.RefID)
	assert.Equal(t, old.LinearID, next.LinearID)
	assert.Equal(t, old.Version+1, next.Version)
	assert.Nil(t, next.ConsumedAt)
	assert.Equal(t, old.UnitsAvailable, next.UnitsAvailable)
}
