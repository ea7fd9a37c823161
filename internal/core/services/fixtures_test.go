package services

import (
	"context"
	"io"
	"strings"
	"time"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// quietLogger keeps test output clean
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeDirectory resolves parties from a static role map
type fakeDirectory struct {
	roles map[string]domain.Role
}

func (d *fakeDirectory) ByName(_ context.Context, name string) (*models.Party, error) {
	role, ok := d.roles[name]
	if !ok {
		return nil, domain.ErrPartyNotFound
	}
	return &models.Party{
		Name:     name,
		Username: strings.ToLower(name),
		Role:     string(role),
		IsActive: true,
	}, nil
}

func (d *fakeDirectory) ByRole(_ context.Context, role domain.Role) ([]*models.Party, error) {
	var out []*models.Party
	for name, r := range d.roles {
		if r == role {
			out = append(out, &models.Party{Name: name, Role: string(r), IsActive: true})
		}
	}
	return out, nil
}

func (d *fakeDirectory) HasRole(_ context.Context, name string, role domain.Role) (bool, error) {
	return d.roles[name] == role, nil
}

// The fake repositories read live rows straight out of the memory committer,
// so repository views and commit semantics always agree.

type fakeTermRepo struct{ mem *ledger.MemoryCommitter }

func (r *fakeTermRepo) LatestByLinearID(_ context.Context, linearID string) (*models.TermState, error) {
	var latest *models.TermState
	for _, row := range r.mem.Unconsumed(models.TermState{}.TableName()) {
		term := row.(*models.TermState)
		if term.LinearID == linearID && (latest == nil || term.Version > latest.Version) {
			latest = term
		}
	}
	if latest == nil {
		return nil, domain.ErrTermNotFound
	}
	return latest, nil
}

func (r *fakeTermRepo) ListActive(_ context.Context, filter *repositories.TermFilter) ([]*models.TermState, error) {
	var out []*models.TermState
	for _, row := range r.mem.Unconsumed(models.TermState{}.TableName()) {
		term := row.(*models.TermState)
		if term.BondStatus != string(domain.StatusActive) {
			continue
		}
		if filter != nil {
			if filter.Currency != "" && term.Currency != filter.Currency {
				continue
			}
			if filter.CreditRating != "" && term.CreditRating != filter.CreditRating {
				continue
			}
			if filter.MaturityDate != nil {
				switch filter.MaturityCmp {
				case repositories.MaturityLess:
					if !term.MaturityDate.Before(*filter.MaturityDate) {
						continue
					}
				case repositories.MaturityGreater:
					if !term.MaturityDate.After(*filter.MaturityDate) {
						continue
					}
				default:
					if !term.MaturityDate.Equal(*filter.MaturityDate) {
						continue
					}
				}
			}
		}
		out = append(out, term)
	}
	return out, nil
}

type fakeBondRepo struct{ mem *ledger.MemoryCommitter }

func (r *fakeBondRepo) all() []*models.BondState {
	var out []*models.BondState
	for _, row := range r.mem.Unconsumed(models.BondState{}.TableName()) {
		out = append(out, row.(*models.BondState))
	}
	return out
}

func (r *fakeBondRepo) LatestByLinearID(_ context.Context, linearID string) (*models.BondState, error) {
	var latest *models.BondState
	for _, bond := range r.all() {
		if bond.LinearID == linearID && (latest == nil || bond.Version > latest.Version) {
			latest = bond
		}
	}
	if latest == nil {
		return nil, domain.ErrBondNotFound
	}
	return latest, nil
}

func (r *fakeBondRepo) LatestByTermAndInvestor(_ context.Context, termLinearID, investor string) (*models.BondState, error) {
	var latest *models.BondState
	for _, bond := range r.all() {
		if bond.TermLinearID == termLinearID && bond.Investor == investor &&
			(latest == nil || bond.Version > latest.Version) {
			latest = bond
		}
	}
	return latest, nil
}

func (r *fakeBondRepo) ListActiveByIssuer(_ context.Context, issuer string) ([]*models.BondState, error) {
	var out []*models.BondState
	for _, bond := range r.all() {
		if bond.Issuer == issuer && bond.BondStatus == string(domain.StatusActive) {
			out = append(out, bond)
		}
	}
	return out, nil
}

func (r *fakeBondRepo) ListActiveByInvestor(_ context.Context, investor string) ([]*models.BondState, error) {
	var out []*models.BondState
	for _, bond := range r.all() {
		if bond.Investor == investor && bond.BondStatus == string(domain.StatusActive) {
			out = append(out, bond)
		}
	}
	return out, nil
}

func (r *fakeBondRepo) ListMaturingBy(_ context.Context, issuer string, maturity time.Time) ([]*models.BondState, error) {
	var out []*models.BondState
	for _, bond := range r.all() {
		if bond.Issuer == issuer && bond.BondStatus == string(domain.StatusActive) &&
			!bond.MaturityDate.After(maturity) {
			out = append(out, bond)
		}
	}
	return out, nil
}

type fakeHoldingRepo struct{ mem *ledger.MemoryCommitter }

func (r *fakeHoldingRepo) BondHolding(_ context.Context, holder, bondLinearID string) (*models.BondHolding, error) {
	for _, row := range r.mem.Unconsumed(models.BondHolding{}.TableName()) {
		h := row.(*models.BondHolding)
		if h.Holder == holder && h.BondLinearID == bondLinearID {
			return h, nil
		}
	}
	return nil, nil
}

func (r *fakeHoldingRepo) BondHoldingsByHolder(_ context.Context, holder string) ([]*models.BondHolding, error) {
	var out []*models.BondHolding
	for _, row := range r.mem.Unconsumed(models.BondHolding{}.TableName()) {
		h := row.(*models.BondHolding)
		if h.Holder == holder {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHoldingRepo) CashHolding(_ context.Context, holder, currencyCode string) (*models.CashHolding, error) {
	for _, row := range r.mem.Unconsumed(models.CashHolding{}.TableName()) {
		h := row.(*models.CashHolding)
		if h.Holder == holder && h.CurrencyCode == currencyCode {
			return h, nil
		}
	}
	return nil, nil
}

type fakeCashStateRepo struct{ mem *ledger.MemoryCommitter }

func (r *fakeCashStateRepo) ByCurrency(_ context.Context, currencyCode string) ([]*models.CashState, error) {
	var out []*models.CashState
	for _, row := range r.mem.Unconsumed(models.CashState{}.TableName()) {
		s := row.(*models.CashState)
		if s.CurrencyCode == currencyCode {
			out = append(out, s)
		}
	}
	return out, nil
}

// ledgerFixture bundles one in-memory ledger with every service under test
type ledgerFixture struct {
	mem      *ledger.MemoryCommitter
	dir      *fakeDirectory
	terms    *fakeTermRepo
	bonds    *fakeBondRepo
	holdings *fakeHoldingRepo
	states   *fakeCashStateRepo

	termSvc    *TermService
	cashSvc    *CashService
	requestSvc *BondRequestService
	couponSvc  *CouponService
}

func newLedgerFixture() *ledgerFixture {
	mem := ledger.NewMemoryCommitter()
	f := &ledgerFixture{
		mem: mem,
		dir: &fakeDirectory{roles: map[string]domain.Role{
			"CentralBank": domain.RoleCentralBank,
			"BankA":       domain.RoleBank,
			"BankB":       domain.RoleBank,
			"BankC":       domain.RoleBank,
			"Observer":    domain.RoleObserver,
		}},
		terms:    &fakeTermRepo{mem: mem},
		bonds:    &fakeBondRepo{mem: mem},
		holdings: &fakeHoldingRepo{mem: mem},
		states:   &fakeCashStateRepo{mem: mem},
	}

	log := quietLogger()
	f.termSvc = NewTermService(f.terms, f.dir, mem, log)
	f.cashSvc = NewCashService(f.states, f.holdings, f.dir, mem, log)
	f.requestSvc = NewBondRequestService(f.terms, f.bonds, f.holdings, f.dir, f.cashSvc, mem, nil, log)
	f.couponSvc = NewCouponService(f.bonds, f.terms, f.holdings, f.cashSvc, mem, nil, log)
	return f
}

// seedCashState registers a currency denomination
func (f *ledgerFixture) seedCashState(currency string) {
	cur, _ := domain.ParseCurrency(currency)
	state := &models.CashState{
		RefID:          uuid.NewString(),
		LinearID:       uuid.NewString(),
		CurrencyCode:   cur.Code,
		USDPairRate:    1,
		FractionDigits: cur.FractionDigits,
		Issuer:         "CentralBank",
	}
	f.mem.Seed(models.CashState{}.TableName(), state.RefID, state)
}

// seedCash gives a party a cash holding
func (f *ledgerFixture) seedCash(holder, currency, amount string) {
	h := &models.CashHolding{
		RefID:        uuid.NewString(),
		Holder:       holder,
		CurrencyCode: currency,
		Amount:       decimal.RequireFromString(amount),
	}
	f.mem.Seed(models.CashHolding{}.TableName(), h.RefID, h)
}

// createTerm issues a standard test term from BankA
func (f *ledgerFixture) createTerm(units int) *models.TermState {
	term, _, err := f.termSvc.CreateTerm(context.Background(), "BankA", &CreateTermInput{
		BondName:         "Highland 2030",
		InterestRate:     0.032,
		ParValue:         1000,
		UnitsAvailable:   units,
		MaturityDate:     domain.FormatDate(time.Now().AddDate(2, 0, 0)),
		BondType:         "GOVERNMENT",
		Currency:         "USD",
		CreditRating:     "AAA",
		PaymentFrequency: 2,
	})
	if err != nil {
		panic(err)
	}
	return term
}
