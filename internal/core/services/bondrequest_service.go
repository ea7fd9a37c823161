package services

import (
	"context"
	"fmt"
	"time"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/directory"
	"bondledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SessionStep is the position of a bond request session in its state machine
type SessionStep string

// Session steps, in protocol order
const (
	StepInitiated     SessionStep = "INITIATED"
	StepTermSent      SessionStep = "TERM_SENT"
	StepValidated     SessionStep = "VALIDATED"
	StepUnitsChecked  SessionStep = "UNITS_CHECKED"
	StepTermUpdated   SessionStep = "TERM_UPDATED"
	StepBondIssued    SessionStep = "BOND_ISSUED_OR_TOPPED_UP"
	StepCashRequested SessionStep = "CASH_REQUESTED"
	StepFinalized     SessionStep = "FINALIZED"
)

// defaultSessionTimeout bounds the wait for a counterparty reply
const defaultSessionTimeout = 30 * time.Second

// termProposal is the initiator's message to the responder: the term version
// the investor acted on plus the requested units
type termProposal struct {
	TermLinearID string
	TermRefID    string
	TermVersion  int
	Investor     string
	Units        int
}

// sessionReply is the responder's answer. On acceptance it carries the ledger
// rows of the term update and bond issuance plus the cash amount requested.
type sessionReply struct {
	Step         SessionStep
	Err          error
	Issuer       string
	Currency     string
	Cost         decimal.Decimal
	BondLinearID string
	Inputs       []ledger.StateRef
	Outputs      []interface{}
}

// BondReceipt is the fungible-token receipt returned to the investor
type BondReceipt struct {
	TokenType      string `json:"token_type"`
	Amount         int    `json:"amount"`
	Issuer         string `json:"issuer"`
	Holder         string `json:"holder"`
	BondIdentifier string `json:"bond_identifier"`
	TransactionID  string `json:"transaction_id"`
}

// BondRequestService drives the two-party purchase protocol. The investor
// initiates, the issuer responds; the two sides exchange messages over
// channels and the whole settlement (term update, bond issuance or top-up,
// cash movement) commits as one transaction.
type BondRequestService struct {
	terms     repositories.TermRepository
	bonds     repositories.BondRepository
	holdings  repositories.HoldingRepository
	dir       directory.Directory
	cash      *CashService
	committer ledger.Committer
	notifier  Notifier
	timeout   time.Duration
	log       *logrus.Entry
}

// NewBondRequestService creates a new bond request service
func NewBondRequestService(
	terms repositories.TermRepository,
	bonds repositories.BondRepository,
	holdings repositories.HoldingRepository,
	dir directory.Directory,
	cash *CashService,
	committer ledger.Committer,
	notifier Notifier,
	log *logrus.Logger,
) *BondRequestService {
	return &BondRequestService{
		terms:     terms,
		bonds:     bonds,
		holdings:  holdings,
		dir:       dir,
		cash:      cash,
		committer: committer,
		notifier:  notifier,
		timeout:   defaultSessionTimeout,
		log:       log.WithField("component", "bond_request"),
	}
}

// SetSessionTimeout overrides the counterparty reply timeout
func (s *BondRequestService) SetSessionTimeout(d time.Duration) {
	s.timeout = d
}

// Request runs one purchase session from initiation to finalization
func (s *BondRequestService) Request(ctx context.Context, investorName, termLinearID string, units int) (*BondReceipt, error) {
	if units <= 0 {
		return nil, domain.ErrInvalidInput
	}

	// INITIATED: the investor must itself be a Bank and must not be the issuer
	isBank, err := s.dir.HasRole(ctx, investorName, domain.RoleBank)
	if err != nil {
		return nil, err
	}
	if !isBank {
		return nil, domain.ErrWrongRole
	}

	term, err := s.terms.LatestByLinearID(ctx, termLinearID)
	if err != nil {
		return nil, domain.ErrTermNotFound
	}
	if term.Issuer == investorName {
		return nil, domain.ErrIssuerAsInvestor
	}

	// TERM_SENT: hand the observed term version to the issuer's responder
	proposeCh := make(chan termProposal, 1)
	replyCh := make(chan sessionReply, 1)
	go s.respond(ctx, proposeCh, replyCh)

	proposeCh <- termProposal{
		TermLinearID: term.LinearID,
		TermRefID:    term.RefID,
		TermVersion:  term.Version,
		Investor:     investorName,
		Units:        units,
	}

	reply, err := s.await(ctx, replyCh)
	if err != nil {
		return nil, err
	}
	if reply.Err != nil {
		s.notifyRequest(ctx, investorName, units, reply.BondLinearID, statusFor(reply.Err))
		return nil, reply.Err
	}

	// CASH_REQUESTED: the issuer accepted; pay parValue x units in the term's
	// currency. The cash legs join the issuer's rows in a single proposal so a
	// failed payment leaves no bond issued.
	cashLegs, err := s.cash.BuildTransferLegs(ctx, investorName, reply.Issuer, reply.Currency, reply.Cost)
	if err != nil {
		s.notifyRequest(ctx, investorName, units, reply.BondLinearID, domain.NotifyStatusFailed)
		return nil, err
	}

	proposal := &ledger.Proposal{
		Inputs:      append(reply.Inputs, cashLegs.Inputs...),
		Outputs:     append(reply.Outputs, cashLegs.Outputs...),
		TxType:      models.TxTypeBondRequest,
		Description: fmt.Sprintf("purchase %d units of term %s", units, termLinearID),
		PerformedBy: investorName,
	}

	txID, err := s.committer.Commit(ctx, proposal)
	if err != nil {
		if conflictError(err) {
			// Another session consumed the term version first. The caller
			// resubmits against the newly committed version.
			s.notifyRequest(ctx, investorName, units, reply.BondLinearID, domain.NotifyStatusNotLatestTerm)
			return nil, domain.ErrNotLatestTerm
		}
		return nil, err
	}

	// FINALIZED
	s.log.WithFields(logrus.Fields{
		"investor":  investorName,
		"term":      termLinearID,
		"bond":      reply.BondLinearID,
		"units":     units,
		"cost":      reply.Cost.String(),
		"tx_id":     txID,
		"last_step": string(StepFinalized),
	}).Info("bond request settled")

	s.notifyRequest(ctx, investorName, units, reply.BondLinearID, domain.NotifyStatusSuccess)
	if s.notifier != nil {
		s.notifier.PublishBondTransfer(ctx, &domain.BondTransferNotification{
			Units:          units,
			Cost:           reply.Cost.String(),
			TermID:         termLinearID,
			BondIdentifier: reply.BondLinearID,
			Status:         domain.NotifyStatusSuccess,
		})
	}

	return &BondReceipt{
		TokenType:      "BondToken",
		Amount:         units,
		Issuer:         reply.Issuer,
		Holder:         investorName,
		BondIdentifier: reply.BondLinearID,
		TransactionID:  txID,
	}, nil
}

// await blocks until the responder replies, the session times out, or the
// context is cancelled
func (s *BondRequestService) await(ctx context.Context, replyCh <-chan sessionReply) (*sessionReply, error) {
	select {
	case reply := <-replyCh:
		return &reply, nil
	case <-time.After(s.timeout):
		return nil, domain.ErrSessionTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// respond runs the issuer side of the session: validate the proposed term
// version, check inventory, and prepare the term update and bond issuance
// rows for the combined commit.
func (s *BondRequestService) respond(ctx context.Context, proposeCh <-chan termProposal, replyCh chan<- sessionReply) {
	var p termProposal
	select {
	case p = <-proposeCh:
	case <-ctx.Done():
		return
	}

	fail := func(step SessionStep, err error) {
		replyCh <- sessionReply{Step: step, Err: err}
	}

	// VALIDATED: the responder trusts only its own view of the ledger. If the
	// initiator acted on anything but the latest committed version the
	// request is rejected as stale.
	latest, err := s.terms.LatestByLinearID(ctx, p.TermLinearID)
	if err != nil {
		fail(StepValidated, domain.ErrTermNotFound)
		return
	}
	if latest.RefID != p.TermRefID || latest.Version != p.TermVersion {
		fail(StepValidated, domain.ErrNotLatestTerm)
		return
	}
	if latest.Issuer == p.Investor {
		fail(StepValidated, domain.ErrIssuerAsInvestor)
		return
	}
	if latest.BondStatus != string(domain.StatusActive) {
		fail(StepValidated, domain.ErrBondMatured)
		return
	}

	// UNITS_CHECKED
	newAvailable := latest.UnitsAvailable - p.Units
	if newAvailable < 0 {
		fail(StepUnitsChecked, domain.ErrInsufficientUnits)
		return
	}

	// TERM_UPDATED
	updated := NextTermVersion(latest)
	updated.UnitsAvailable = newAvailable
	updated.RedemptionAvailable = latest.RedemptionAvailable + p.Units
	if !updated.HasInvestor(p.Investor) {
		updated.SetInvestors(append(updated.InvestorSet(), p.Investor))
	}
	if err := ValidateTermUpdate(latest, updated); err != nil {
		fail(StepTermUpdated, err)
		return
	}

	inputs := []ledger.StateRef{
		{Table: models.TermState{}.TableName(), RefID: latest.RefID},
	}
	outputs := []interface{}{updated}

	// BOND_ISSUED_OR_TOPPED_UP: first purchase creates the bond state, later
	// purchases only grow the fungible holding
	bond, err := s.bonds.LatestByTermAndInvestor(ctx, p.TermLinearID, p.Investor)
	if err != nil {
		fail(StepBondIssued, err)
		return
	}

	var bondLinearID string
	if bond == nil {
		issued := s.issueBond(latest, p.Investor)
		bondLinearID = issued.LinearID
		outputs = append(outputs, issued, &models.BondHolding{
			RefID:        uuid.NewString(),
			Holder:       p.Investor,
			BondLinearID: issued.LinearID,
			Amount:       p.Units,
		})
	} else {
		bondLinearID = bond.LinearID
		holding, err := s.holdings.BondHolding(ctx, p.Investor, bond.LinearID)
		if err != nil {
			fail(StepBondIssued, err)
			return
		}
		amount := p.Units
		if holding != nil {
			inputs = append(inputs, ledger.StateRef{
				Table: models.BondHolding{}.TableName(), RefID: holding.RefID,
			})
			amount += holding.Amount
		}
		outputs = append(outputs, &models.BondHolding{
			RefID:        uuid.NewString(),
			Holder:       p.Investor,
			BondLinearID: bond.LinearID,
			Amount:       amount,
		})
	}

	// CASH_REQUESTED: acceptance; the initiator now owes parValue x units
	cost := decimal.NewFromInt(int64(latest.ParValue)).Mul(decimal.NewFromInt(int64(p.Units)))

	select {
	case replyCh <- sessionReply{
		Step:         StepCashRequested,
		Issuer:       latest.Issuer,
		Currency:     latest.Currency,
		Cost:         cost,
		BondLinearID: bondLinearID,
		Inputs:       inputs,
		Outputs:      outputs,
	}:
	case <-ctx.Done():
	}
}

// issueBond builds the first bond state for an investor on a term. The coupon
// schedule starts one payment period after issuance and runs until maturity.
func (s *BondRequestService) issueBond(term *models.TermState, investor string) *models.BondState {
	now := time.Now()
	period := term.PaymentFrequency * 30
	next := now.AddDate(0, 0, period)
	if next.After(term.MaturityDate) {
		next = term.MaturityDate
	}

	couponsLeft := 0
	if days := domain.DaysBetween(now, term.MaturityDate); days > 0 && period > 0 {
		couponsLeft = (days / 30) / term.PaymentFrequency
	}

	return &models.BondState{
		RefID:             uuid.NewString(),
		LinearID:          uuid.NewString(),
		Version:           1,
		TermLinearID:      term.LinearID,
		Issuer:            term.Issuer,
		Investor:          investor,
		BondName:          term.BondName,
		Currency:          term.Currency,
		CreditRating:      term.CreditRating,
		BondType:          term.BondType,
		InterestRate:      term.InterestRate,
		ParValue:          term.ParValue,
		PaymentFrequency:  term.PaymentFrequency,
		CouponPaymentLeft: couponsLeft,
		IssueDate:         now,
		NextCouponDate:    &next,
		MaturityDate:      term.MaturityDate,
		BondStatus:        string(domain.StatusActive),
	}
}

// notifyRequest publishes the session outcome to the investor's channel
func (s *BondRequestService) notifyRequest(ctx context.Context, investor string, units int, bondLinearID, status string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishBondRequest(ctx, &domain.BondRequestNotification{
		Investor:     investor,
		Units:        units,
		Status:       status,
		BondLinearID: bondLinearID,
	})
}

// statusFor maps a session error to the notification status wire string
func statusFor(err error) string {
	switch err {
	case domain.ErrNotLatestTerm:
		return domain.NotifyStatusNotLatestTerm
	case domain.ErrInsufficientUnits:
		return domain.NotifyStatusNotEnough
	case domain.ErrBondNotFound, domain.ErrTermNotFound:
		return domain.NotifyStatusNoBondsFound
	default:
		return domain.NotifyStatusFailed
	}
}
