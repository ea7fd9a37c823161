package services

import (
	"context"
	"testing"

	"bondledger/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIssueCash(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	receipt, err := f.cashSvc.Issue(ctx, "CentralBank", "BankA", "USD", 1.0, d("1000"))
	require.NoError(t, err)
	assert.Equal(t, "USD", receipt.CurrencyCode)
	assert.Equal(t, "BankA", receipt.Recipient)

	balance, err := f.cashSvc.Balance(ctx, "BankA", "USD")
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("1000")), "got %s", balance)

	// the first issue registers the currency denomination
	state, err := f.cashSvc.ResolveCashState(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, int32(2), state.FractionDigits)

	// a second issue folds into the existing holding without a second state
	_, err = f.cashSvc.Issue(ctx, "CentralBank", "BankA", "USD", 1.0, d("250.50"))
	require.NoError(t, err)

	balance, err = f.cashSvc.Balance(ctx, "BankA", "USD")
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("1250.50")), "got %s", balance)

	_, err = f.cashSvc.ResolveCashState(ctx, "USD")
	assert.NoError(t, err)
}

func TestIssueCashRoleChecks(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	_, err := f.cashSvc.Issue(ctx, "BankA", "BankB", "USD", 1.0, d("100"))
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.cashSvc.Issue(ctx, "CentralBank", "Observer", "USD", 1.0, d("100"))
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.cashSvc.Issue(ctx, "CentralBank", "BankA", "USD", 1.0, d("0"))
	assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)

	_, err = f.cashSvc.Issue(ctx, "CentralBank", "BankA", "XXX", 1.0, d("100"))
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestTransferConservesTotal(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.seedCashState("USD")
	f.seedCash("BankA", "USD", "500")

	receipt, err := f.cashSvc.Transfer(ctx, "BankA", "BankB", "USD", d("200"))
	require.NoError(t, err)
	assert.Equal(t, "200", receipt.Amount)

	senderBal, _ := f.cashSvc.Balance(ctx, "BankA", "USD")
	recipientBal, _ := f.cashSvc.Balance(ctx, "BankB", "USD")
	assert.True(t, senderBal.Equal(d("300")), "got %s", senderBal)
	assert.True(t, recipientBal.Equal(d("200")), "got %s", recipientBal)
	assert.True(t, senderBal.Add(recipientBal).Equal(d("500")))
}

func TestTransferInsufficientCash(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.seedCashState("USD")
	f.seedCash("BankA", "USD", "500")

	_, err := f.cashSvc.Transfer(ctx, "BankA", "BankB", "USD", d("600"))
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)

	// nothing moved
	senderBal, _ := f.cashSvc.Balance(ctx, "BankA", "USD")
	recipientBal, _ := f.cashSvc.Balance(ctx, "BankB", "USD")
	assert.True(t, senderBal.Equal(d("500")))
	assert.True(t, recipientBal.IsZero())
	assert.Equal(t, 0, f.mem.CommitCount())
}

func TestTransferNoHoldingAtAll(t *testing.T) {
	f := newLedgerFixture()
	f.seedCashState("USD")

	_, err := f.cashSvc.Transfer(context.Background(), "BankA", "BankB", "USD", d("1"))
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)
}

func TestTransferRoleChecks(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.seedCashState("USD")
	f.seedCash("BankA", "USD", "500")

	_, err := f.cashSvc.Transfer(ctx, "BankA", "Observer", "USD", d("100"))
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.cashSvc.Transfer(ctx, "Observer", "BankA", "USD", d("100"))
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.cashSvc.Transfer(ctx, "BankA", "BankB", "USD", d("-5"))
	assert.ErrorIs(t, err, domain.ErrNonPositiveAmount)
}

func TestTransferWithoutCashState(t *testing.T) {
	f := newLedgerFixture()
	f.seedCash("BankA", "USD", "500")

	_, err := f.cashSvc.Transfer(context.Background(), "BankA", "BankB", "USD", d("100"))
	assert.ErrorIs(t, err, domain.ErrCashStateNotFound)
}

func TestBalanceTruncatesToCurrencyPrecision(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.seedCash("BankA", "USD", "2123456789.987654")

	balance, err := f.cashSvc.Balance(ctx, "BankA", "USD")
	require.NoError(t, err)
	assert.Equal(t, "2123456789.98", balance.String())
}

func TestBalanceZeroDigitCurrency(t *testing.T) {
	f := newLedgerFixture()
	f.seedCash("BankA", "JPY", "100.75")

	balance, err := f.cashSvc.Balance(context.Background(), "BankA", "JPY")
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String())
}

func TestBalanceNeverHeld(t *testing.T) {
	f := newLedgerFixture()

	balance, err := f.cashSvc.Balance(context.Background(), "BankB", "USD")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	_, err = f.cashSvc.Balance(context.Background(), "BankB", "XXX")
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestBuildTransferLegsMergesRecipientHolding(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.seedCashState("USD")
	f.seedCash("BankA", "USD", "500")
	f.seedCash("BankB", "USD", "50")

	legs, err := f.cashSvc.BuildTransferLegs(ctx, "BankA", "BankB", "USD", d("200"))
	require.NoError(t, err)

	// both existing holdings are consumed, two replacements produced
	assert.Len(t, legs.Inputs, 2)
	assert.Len(t, legs.Outputs, 2)
}
