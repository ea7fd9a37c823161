package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// marketFixture sets up a sellable term with funded buyers
func marketFixture(t *testing.T, units int) (*ledgerFixture, *models.TermState) {
	t.Helper()
	f := newLedgerFixture()
	f.seedCashState("USD")
	f.seedCash("BankB", "USD", "100000")
	f.seedCash("BankC", "USD", "100000")
	term := f.createTerm(units)
	return f, term
}

func TestBondRequestFirstPurchase(t *testing.T) {
	f, term := marketFixture(t, 1200)
	ctx := context.Background()

	receipt, err := f.requestSvc.Request(ctx, "BankB", term.LinearID, 50)
	require.NoError(t, err)

	assert.Equal(t, "BondToken", receipt.TokenType)
	assert.Equal(t, 50, receipt.Amount)
	assert.Equal(t, "BankA", receipt.Issuer)
	assert.Equal(t, "BankB", receipt.Holder)
	assert.NotEmpty(t, receipt.BondIdentifier)
	assert.NotEmpty(t, receipt.TransactionID)

	// term advanced one version with the units moved to the redemption pool
	latest, err := f.terms.LatestByLinearID(ctx, term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, 1150, latest.UnitsAvailable)
	assert.Equal(t, 50, latest.RedemptionAvailable)
	assert.True(t, latest.HasInvestor("BankB"))

	// the observed version is spent
	assert.True(t, f.mem.Consumed(models.TermState{}.TableName(), term.RefID))

	// bond state plus fungible holding
	bond, err := f.bonds.LatestByTermAndInvestor(ctx, term.LinearID, "BankB")
	require.NoError(t, err)
	require.NotNil(t, bond)
	assert.Equal(t, receipt.BondIdentifier, bond.LinearID)
	assert.Equal(t, string(domain.StatusActive), bond.BondStatus)
	assert.NotNil(t, bond.NextCouponDate)
	assert.False(t, bond.NextCouponDate.After(bond.MaturityDate))

	holding, err := f.holdings.BondHolding(ctx, "BankB", bond.LinearID)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 50, holding.Amount)

	// delivery versus payment: par 1000 x 50 units
	investorBal, _ := f.cashSvc.Balance(ctx, "BankB", "USD")
	issuerBal, _ := f.cashSvc.Balance(ctx, "BankA", "USD")
	assert.Equal(t, "50000", investorBal.String())
	assert.Equal(t, "50000", issuerBal.String())
}

func TestBondRequestTopUp(t *testing.T) {
	f, term := marketFixture(t, 1200)
	ctx := context.Background()

	first, err := f.requestSvc.Request(ctx, "BankB", term.LinearID, 50)
	require.NoError(t, err)
	second, err := f.requestSvc.Request(ctx, "BankB", term.LinearID, 25)
	require.NoError(t, err)

	// the second purchase grows the holding instead of issuing a new bond
	assert.Equal(t, first.BondIdentifier, second.BondIdentifier)

	holding, err := f.holdings.BondHolding(ctx, "BankB", first.BondIdentifier)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 75, holding.Amount)

	latest, err := f.terms.LatestByLinearID(ctx, term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
	assert.Equal(t, 1125, latest.UnitsAvailable)
	assert.Equal(t, 75, latest.RedemptionAvailable)
	assert.Equal(t, []string{"BankB"}, latest.InvestorSet())
}

func TestBondRequestInsufficientUnits(t *testing.T) {
	f, term := marketFixture(t, 1200)
	ctx := context.Background()

	_, err := f.requestSvc.Request(ctx, "BankB", term.LinearID, 1300)
	assert.ErrorIs(t, err, domain.ErrInsufficientUnits)

	// rejection leaves the term untouched
	latest, err := f.terms.LatestByLinearID(ctx, term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
	assert.Equal(t, 1200, latest.UnitsAvailable)

	balance, _ := f.cashSvc.Balance(ctx, "BankB", "USD")
	assert.Equal(t, "100000", balance.String())
}

func TestBondRequestRejections(t *testing.T) {
	f, term := marketFixture(t, 100)
	ctx := context.Background()

	_, err := f.requestSvc.Request(ctx, "BankB", term.LinearID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.requestSvc.Request(ctx, "Observer", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.requestSvc.Request(ctx, "CentralBank", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrWrongRole)

	_, err = f.requestSvc.Request(ctx, "BankA", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrIssuerAsInvestor)

	_, err = f.requestSvc.Request(ctx, "BankB", uuid.NewString(), 10)
	assert.ErrorIs(t, err, domain.ErrTermNotFound)
}

func TestBondRequestInsufficientCash(t *testing.T) {
	f := newLedgerFixture()
	f.seedCashState("USD")
	term := f.createTerm(100)

	// BankB holds nothing, so the cash leg fails before any commit
	_, err := f.requestSvc.Request(context.Background(), "BankB", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientCash)

	latest, err := f.terms.LatestByLinearID(context.Background(), term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, 100, latest.UnitsAvailable)
}

func TestBondRequestMaturedTerm(t *testing.T) {
	f := newLedgerFixture()
	f.seedCashState("USD")
	f.seedCash("BankB", "USD", "100000")

	maturity := time.Now().AddDate(1, 0, 0)
	term := &models.TermState{
		RefID:               uuid.NewString(),
		LinearID:            uuid.NewString(),
		Version:             3,
		Issuer:              "BankA",
		BondName:            "Retired 2027",
		Currency:            "USD",
		CreditRating:        "AA",
		BondType:            "CORPORATE",
		InterestRate:        0.025,
		ParValue:            500,
		PaymentFrequency:    6,
		TotalUnits:          100,
		UnitsAvailable:      0,
		RedemptionAvailable: 100,
		MaturityDate:        maturity,
		BondStatus:          string(domain.StatusMatured),
	}
	f.mem.Seed(models.TermState{}.TableName(), term.RefID, term)

	_, err := f.requestSvc.Request(context.Background(), "BankB", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrBondMatured)
}

func TestBondRequestConcurrentBuyers(t *testing.T) {
	f, term := marketFixture(t, 50)
	ctx := context.Background()

	type result struct {
		investor string
		receipt  *BondReceipt
		err      error
	}

	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, investor := range []string{"BankB", "BankC"} {
		wg.Add(1)
		go func(investor string) {
			defer wg.Done()
			receipt, err := f.requestSvc.Request(ctx, investor, term.LinearID, 50)
			results <- result{investor: investor, receipt: receipt, err: err}
		}(investor)
	}
	wg.Wait()
	close(results)

	var winners, losers []result
	for r := range results {
		if r.err == nil {
			winners = append(winners, r)
		} else {
			losers = append(losers, r)
		}
	}

	// the term version is consumed exactly once, so one buyer wins
	require.Len(t, winners, 1)
	require.Len(t, losers, 1)
	assert.Contains(t,
		[]error{domain.ErrNotLatestTerm, domain.ErrInsufficientUnits},
		losers[0].err)

	latest, err := f.terms.LatestByLinearID(ctx, term.LinearID)
	require.NoError(t, err)
	assert.Equal(t, 0, latest.UnitsAvailable)
	assert.Equal(t, 50, latest.RedemptionAvailable)

	// only the winner paid
	winnerBal, _ := f.cashSvc.Balance(ctx, winners[0].investor, "USD")
	loserBal, _ := f.cashSvc.Balance(ctx, losers[0].investor, "USD")
	assert.Equal(t, "50000", winnerBal.String())
	assert.Equal(t, "100000", loserBal.String())

	holding, err := f.holdings.BondHolding(ctx, winners[0].investor, winners[0].receipt.BondIdentifier)
	require.NoError(t, err)
	require.NotNil(t, holding)
	assert.Equal(t, 50, holding.Amount)
}

// slowTermRepo delays every lookup so the responder can never answer within
// the session timeout under test
type slowTermRepo struct {
	repositories.TermRepository
	delay time.Duration
}

func (r *slowTermRepo) LatestByLinearID(ctx context.Context, linearID string) (*models.TermState, error) {
	time.Sleep(r.delay)
	return r.TermRepository.LatestByLinearID(ctx, linearID)
}

func TestBondRequestSessionTimeout(t *testing.T) {
	f, term := marketFixture(t, 100)

	svc := NewBondRequestService(
		&slowTermRepo{TermRepository: f.terms, delay: 200 * time.Millisecond},
		f.bonds, f.holdings, f.dir, f.cashSvc, f.mem, nil, quietLogger())
	svc.SetSessionTimeout(10 * time.Millisecond)

	_, err := svc.Request(context.Background(), "BankB", term.LinearID, 10)
	assert.ErrorIs(t, err, domain.ErrSessionTimeout)
}
