package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// couponWorkers bounds the fan-out of one coupon cycle
const couponWorkers = 8

// errAlreadySettled reports that another committed transaction advanced the
// bond past this cycle while the payment was being prepared
var errAlreadySettled = errors.New("bond already settled for this cycle")

// CouponService pays periodic coupons and settles redemptions on behalf of an
// issuer. Every payment consumes the paying bond state and the cash holdings
// involved in one transaction, so a bond is never paid twice for the same
// cycle even when two schedulers fire simultaneously.
type CouponService struct {
	bonds     repositories.BondRepository
	terms     repositories.TermRepository
	holdings  repositories.HoldingRepository
	cash      *CashService
	committer ledger.Committer
	notifier  Notifier
	log       *logrus.Entry
}

// NewCouponService creates a new coupon service
func NewCouponService(
	bonds repositories.BondRepository,
	terms repositories.TermRepository,
	holdings repositories.HoldingRepository,
	cash *CashService,
	committer ledger.Committer,
	notifier Notifier,
	log *logrus.Logger,
) *CouponService {
	return &CouponService{
		bonds:     bonds,
		terms:     terms,
		holdings:  holdings,
		cash:      cash,
		committer: committer,
		notifier:  notifier,
		log:       log.WithField("component", "coupons"),
	}
}

// CycleSummary reports one coupon run
type CycleSummary struct {
	Issuer     string `json:"issuer"`
	CouponDate string `json:"coupon_date"`
	BondsPaid  int    `json:"bonds_paid"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// RedemptionSummary reports one redemption run
type RedemptionSummary struct {
	Issuer        string `json:"issuer"`
	MaturityDate  string `json:"maturity_date"`
	BondsRedeemed int    `json:"bonds_redeemed"`
	Failed        int    `json:"failed"`
}

// CouponAmount computes one coupon payment. The rate is an annual fraction,
// split across the payments of a year and scaled by the units held.
func CouponAmount(parValue int, interestRate float64, paymentFrequencyMonths, numberOfTokens int) decimal.Decimal {
	paymentsPerYear := 12 / paymentFrequencyMonths
	if paymentsPerYear == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(parValue)).
		Mul(decimal.NewFromFloat(interestRate)).
		Div(decimal.NewFromInt(int64(paymentsPerYear))).
		Mul(decimal.NewFromInt(int64(numberOfTokens)))
}

// RedemptionPayout computes the amount owed when a bond holding is retired.
// A bond whose coupon schedule stops short of maturity earns simple-interest
// proration on top of par; one that runs to maturity pays par only.
func RedemptionPayout(bond *models.BondState, numberOfTokens int) decimal.Decimal {
	par := decimal.NewFromInt(int64(bond.ParValue))
	tokens := decimal.NewFromInt(int64(numberOfTokens))

	if bond.NextCouponDate != nil && bond.NextCouponDate.Before(bond.MaturityDate) {
		days := domain.DaysBetween(*bond.NextCouponDate, bond.MaturityDate)
		denom := decimal.NewFromFloat(bond.InterestRate).
			Div(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(365)).
			Mul(decimal.NewFromInt(int64(days)))
		if !denom.IsZero() {
			si := par.Div(denom)
			return par.Add(si).Mul(tokens)
		}
	}
	return par.Mul(tokens)
}

// RunCycle pays every due coupon of the issuer's active bonds as of
// couponDate. Bonds whose next coupon date lies beyond couponDate are left
// alone; each paid bond advances its schedule by one payment period, clamped
// to maturity.
func (s *CouponService) RunCycle(ctx context.Context, issuerName string, couponDate time.Time) (*CycleSummary, error) {
	bonds, err := s.bonds.ListActiveByIssuer(ctx, issuerName)
	if err != nil {
		return nil, err
	}

	summary := &CycleSummary{
		Issuer:     issuerName,
		CouponDate: domain.FormatDate(couponDate),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(couponWorkers)

	for _, bond := range bonds {
		bond := bond
		if bond.CouponPaymentLeft <= 0 {
			summary.Skipped++
			continue
		}
		if bond.NextCouponDate == nil || bond.NextCouponDate.After(couponDate) {
			summary.Skipped++
			continue
		}
		g.Go(func() error {
			err := s.payCoupon(gctx, bond, couponDate)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.BondsPaid++
			case errors.Is(err, errAlreadySettled):
				summary.Skipped++
			default:
				summary.Failed++
				s.log.WithError(err).WithField("bond", bond.LinearID).Warn("coupon payment failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	s.log.WithFields(logrus.Fields{
		"issuer":  issuerName,
		"date":    summary.CouponDate,
		"paid":    summary.BondsPaid,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}).Info("coupon cycle finished")
	return summary, nil
}

// payCoupon settles one bond's coupon: cash from issuer to investor plus the
// advanced bond state, committed together. Sibling payments of one cycle all
// spend the issuer's cash holding, so a commit conflict does not by itself
// mean the bond was paid; the loop re-reads the bond and retries with fresh
// cash legs until the commit lands or the bond is no longer due.
func (s *CouponService) payCoupon(ctx context.Context, bond *models.BondState, couponDate time.Time) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		holding, err := s.holdings.BondHolding(ctx, bond.Investor, bond.LinearID)
		if err != nil {
			return err
		}
		if holding == nil || holding.Amount <= 0 {
			s.notifyCoupon(ctx, bond, 0, domain.NotifyStatusNoBondsFound)
			return domain.ErrBondNotFound
		}

		coupon := CouponAmount(bond.ParValue, bond.InterestRate, bond.PaymentFrequency, holding.Amount)

		legs, err := s.cash.BuildTransferLegs(ctx, bond.Issuer, bond.Investor, bond.Currency, coupon)
		if err != nil {
			s.notifyCoupon(ctx, bond, holding.Amount, domain.NotifyStatusFailed)
			return err
		}

		next := couponDate.AddDate(0, 0, 30*bond.PaymentFrequency)
		if next.After(bond.MaturityDate) {
			next = bond.MaturityDate
		}

		updated := nextBondVersion(bond)
		updated.CouponPaymentLeft = bond.CouponPaymentLeft - 1
		updated.NextCouponDate = &next

		proposal := &ledger.Proposal{
			Inputs: append(legs.Inputs, ledger.StateRef{
				Table: models.BondState{}.TableName(), RefID: bond.RefID,
			}),
			Outputs:     append(legs.Outputs, updated),
			TxType:      models.TxTypeCouponPay,
			Description: fmt.Sprintf("coupon %s %s on bond %s", coupon.String(), bond.Currency, bond.LinearID),
			PerformedBy: bond.Issuer,
		}

		if _, err := s.committer.Commit(ctx, proposal); err != nil {
			if !conflictError(err) {
				s.notifyCoupon(ctx, bond, holding.Amount, domain.NotifyStatusFailed)
				return err
			}
			latest, lerr := s.bonds.LatestByLinearID(ctx, bond.LinearID)
			if lerr != nil {
				return lerr
			}
			if latest.BondStatus != string(domain.StatusActive) ||
				latest.CouponPaymentLeft <= 0 ||
				latest.NextCouponDate == nil ||
				latest.NextCouponDate.After(couponDate) {
				// A concurrent cycle advanced the schedule; nothing owed here.
				return errAlreadySettled
			}
			// The conflict came from a respent cash holding; the bond is
			// still due.
			bond = latest
			continue
		}

		s.notifyCoupon(ctx, bond, holding.Amount, domain.NotifyStatusSuccess)
		return nil
	}
}

// RedeemTerm retires every holding of the term's bonds, paying out par (plus
// proration when the schedule stopped early) and marking bond and term
// MATURED. earlyRedemption skips the maturity-date gate.
func (s *CouponService) RedeemTerm(ctx context.Context, issuerName, termLinearID string, earlyRedemption bool) (*RedemptionSummary, error) {
	term, err := s.terms.LatestByLinearID(ctx, termLinearID)
	if err != nil {
		return nil, domain.ErrTermNotFound
	}
	if term.Issuer != issuerName {
		return nil, domain.ErrForbidden
	}

	if !earlyRedemption && time.Now().Before(term.MaturityDate) {
		return nil, domain.ErrBondNotMatured
	}

	bonds, err := s.bonds.ListActiveByIssuer(ctx, issuerName)
	if err != nil {
		return nil, err
	}

	summary := &RedemptionSummary{
		Issuer:       issuerName,
		MaturityDate: domain.FormatDate(term.MaturityDate),
	}

	termRetired := term.BondStatus != string(domain.StatusActive)
	for _, bond := range bonds {
		if bond.TermLinearID != termLinearID {
			continue
		}
		// The first redeemed bond carries the term's MATURED transition; the
		// rest settle against the already retired term.
		var termInput *models.TermState
		if !termRetired {
			termInput = term
		}
		if err := s.redeemBond(ctx, bond, termInput); err != nil {
			summary.Failed++
			s.log.WithError(err).WithField("bond", bond.LinearID).Warn("redemption failed")
			continue
		}
		termRetired = true
		summary.BondsRedeemed++
	}

	return summary, nil
}

// RunMaturityScan redeems every bond of the issuer maturing on or before the
// reference date. The cron driver invokes it daily.
func (s *CouponService) RunMaturityScan(ctx context.Context, issuerName string, date time.Time) (*RedemptionSummary, error) {
	bonds, err := s.bonds.ListMaturingBy(ctx, issuerName, date)
	if err != nil {
		return nil, err
	}

	summary := &RedemptionSummary{
		Issuer:       issuerName,
		MaturityDate: domain.FormatDate(date),
	}

	retired := make(map[string]bool)
	for _, bond := range bonds {
		var termInput *models.TermState
		if !retired[bond.TermLinearID] {
			term, err := s.terms.LatestByLinearID(ctx, bond.TermLinearID)
			if err == nil && term.BondStatus == string(domain.StatusActive) {
				termInput = term
			}
		}
		if err := s.redeemBond(ctx, bond, termInput); err != nil {
			summary.Failed++
			s.log.WithError(err).WithField("bond", bond.LinearID).Warn("redemption failed")
			continue
		}
		retired[bond.TermLinearID] = true
		summary.BondsRedeemed++
	}

	return summary, nil
}

// redeemBond pays out one holding and retires bond (and optionally term)
// state in a single transaction. Conflicts on the shared issuer cash holding
// are retried against re-read state; only a bond that already left ACTIVE
// counts as settled elsewhere.
func (s *CouponService) redeemBond(ctx context.Context, bond *models.BondState, term *models.TermState) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		holding, err := s.holdings.BondHolding(ctx, bond.Investor, bond.LinearID)
		if err != nil {
			return err
		}
		if holding == nil || holding.Amount <= 0 {
			return domain.ErrBondNotFound
		}

		payout := RedemptionPayout(bond, holding.Amount)

		legs, err := s.cash.BuildTransferLegs(ctx, bond.Issuer, bond.Investor, bond.Currency, payout)
		if err != nil {
			return err
		}

		matured := nextBondVersion(bond)
		matured.BondStatus = string(domain.StatusMatured)
		matured.CouponPaymentLeft = 0
		matured.NextCouponDate = nil

		inputs := append(legs.Inputs,
			ledger.StateRef{Table: models.BondState{}.TableName(), RefID: bond.RefID},
			ledger.StateRef{Table: models.BondHolding{}.TableName(), RefID: holding.RefID},
		)
		outputs := append(legs.Outputs, matured)

		if term != nil {
			retired := NextTermVersion(term)
			retired.BondStatus = string(domain.StatusMatured)
			retired.UnitsAvailable = 0
			inputs = append(inputs, ledger.StateRef{
				Table: models.TermState{}.TableName(), RefID: term.RefID,
			})
			outputs = append(outputs, retired)
		}

		_, err = s.committer.Commit(ctx, &ledger.Proposal{
			Inputs:      inputs,
			Outputs:     outputs,
			TxType:      models.TxTypeRedemption,
			Description: fmt.Sprintf("redeem %d units of bond %s for %s %s", holding.Amount, bond.LinearID, payout.String(), bond.Currency),
			PerformedBy: bond.Issuer,
		})
		if err != nil {
			if !conflictError(err) {
				return err
			}
			latest, lerr := s.bonds.LatestByLinearID(ctx, bond.LinearID)
			if lerr != nil {
				return lerr
			}
			if latest.BondStatus != string(domain.StatusActive) {
				return nil
			}
			bond = latest
			if term != nil {
				freshTerm, terr := s.terms.LatestByLinearID(ctx, term.LinearID)
				if terr != nil || freshTerm.BondStatus != string(domain.StatusActive) {
					term = nil
				} else {
					term = freshTerm
				}
			}
			continue
		}

		s.log.WithFields(logrus.Fields{
			"bond":     bond.LinearID,
			"investor": bond.Investor,
			"units":    holding.Amount,
			"payout":   payout.String(),
		}).Info("bond redeemed")

		s.notifyCoupon(ctx, bond, holding.Amount, domain.NotifyStatusSuccess)
		return nil
	}
}

// nextBondVersion clones a bond state into its successor version
func nextBondVersion(old *models.BondState) *models.BondState {
	next := *old
	next.RefID = uuid.NewString()
	next.Version = old.Version + 1
	next.ConsumedAt = nil
	next.CreatedAt = time.Time{}
	return &next
}

// notifyCoupon publishes a per-bond cycle outcome
func (s *CouponService) notifyCoupon(ctx context.Context, bond *models.BondState, tokens int, status string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishCouponPayment(ctx, &domain.CouponPaymentNotification{
		Issuer:         bond.Issuer,
		NumberOfTokens: tokens,
		Status:         status,
		BondLinearID:   bond.LinearID,
		TermLinearID:   bond.TermLinearID,
	})
}
