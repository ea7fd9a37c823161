package services

import (
	"context"
	"errors"
	"fmt"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"
	"bondledger/internal/directory"
	"bondledger/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CashService moves fungible cash tokens between parties. Only a CentralBank
// or Bank may send, and only a Bank may receive. The total circulating amount
// of a currency never changes across a transfer.
type CashService struct {
	cashStates repositories.CashStateRepository
	holdings   repositories.HoldingRepository
	dir        directory.Directory
	committer  ledger.Committer
	log        *logrus.Entry
}

// NewCashService creates a new cash service
func NewCashService(
	cashStates repositories.CashStateRepository,
	holdings repositories.HoldingRepository,
	dir directory.Directory,
	committer ledger.Committer,
	log *logrus.Logger,
) *CashService {
	return &CashService{
		cashStates: cashStates,
		holdings:   holdings,
		dir:        dir,
		committer:  committer,
		log:        log.WithField("component", "cash"),
	}
}

// TransferReceipt describes a settled cash movement
type TransferReceipt struct {
	CurrencyCode  string `json:"currency_code"`
	Issuer        string `json:"issuer"`
	Recipient     string `json:"recipient"`
	Amount        string `json:"amount"`
	TransactionID string `json:"transaction_id"`
}

// ResolveCashState finds the unique cash state for a currency. Absence and
// duplication are both errors: the ledger carries at most one denomination
// record per currency.
func (s *CashService) ResolveCashState(ctx context.Context, currencyCode string) (*models.CashState, error) {
	if _, ok := domain.ParseCurrency(currencyCode); !ok {
		return nil, domain.ErrUnknownCurrency
	}
	states, err := s.cashStates.ByCurrency(ctx, currencyCode)
	if err != nil {
		return nil, err
	}
	switch len(states) {
	case 0:
		return nil, domain.ErrCashStateNotFound
	case 1:
		return states[0], nil
	default:
		return nil, domain.ErrDuplicateCashState
	}
}

// TransferLegs holds the input references and output rows of one cash
// movement, ready to be merged into a larger proposal.
type TransferLegs struct {
	Inputs  []ledger.StateRef
	Outputs []interface{}
}

// BuildTransferLegs prepares the ledger rows moving amount from sender to
// recipient without committing anything. The bond request protocol merges
// these legs with the term and bond rows into one atomic proposal.
func (s *CashService) BuildTransferLegs(ctx context.Context, from, to, currencyCode string, amount decimal.Decimal) (*TransferLegs, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}
	if _, err := s.ResolveCashState(ctx, currencyCode); err != nil {
		return nil, err
	}

	senderHolding, err := s.holdings.CashHolding(ctx, from, currencyCode)
	if err != nil {
		return nil, err
	}
	if senderHolding == nil || senderHolding.Amount.LessThan(amount) {
		return nil, domain.ErrInsufficientCash
	}

	legs := &TransferLegs{
		Inputs: []ledger.StateRef{
			{Table: models.CashHolding{}.TableName(), RefID: senderHolding.RefID},
		},
		Outputs: []interface{}{
			&models.CashHolding{
				RefID:        uuid.NewString(),
				Holder:       from,
				CurrencyCode: currencyCode,
				Amount:       senderHolding.Amount.Sub(amount),
			},
		},
	}

	received := amount
	recipientHolding, err := s.holdings.CashHolding(ctx, to, currencyCode)
	if err != nil {
		return nil, err
	}
	if recipientHolding != nil {
		legs.Inputs = append(legs.Inputs, ledger.StateRef{
			Table: models.CashHolding{}.TableName(), RefID: recipientHolding.RefID,
		})
		received = received.Add(recipientHolding.Amount)
	}
	legs.Outputs = append(legs.Outputs, &models.CashHolding{
		RefID:        uuid.NewString(),
		Holder:       to,
		CurrencyCode: currencyCode,
		Amount:       received,
	})

	return legs, nil
}

// Transfer moves amount of a currency from one party to another as a single
// committed transaction
func (s *CashService) Transfer(ctx context.Context, from, to, currencyCode string, amount decimal.Decimal) (*TransferReceipt, error) {
	sender, err := s.dir.ByName(ctx, from)
	if err != nil {
		return nil, err
	}
	senderRole := domain.Role(sender.Role)
	if senderRole != domain.RoleCentralBank && senderRole != domain.RoleBank {
		return nil, domain.ErrWrongRole
	}

	recipient, err := s.dir.ByName(ctx, to)
	if err != nil {
		return nil, err
	}
	if domain.Role(recipient.Role) != domain.RoleBank {
		return nil, domain.ErrWrongRole
	}

	legs, err := s.BuildTransferLegs(ctx, from, to, currencyCode, amount)
	if err != nil {
		return nil, err
	}

	txID, err := s.committer.Commit(ctx, &ledger.Proposal{
		Inputs:      legs.Inputs,
		Outputs:     legs.Outputs,
		TxType:      models.TxTypeCashTransfer,
		Description: fmt.Sprintf("transfer %s %s to %s", amount.String(), currencyCode, to),
		PerformedBy: from,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"from":     from,
		"to":       to,
		"currency": currencyCode,
		"amount":   amount.String(),
		"tx_id":    txID,
	}).Info("cash transferred")

	return &TransferReceipt{
		CurrencyCode:  currencyCode,
		Issuer:        from,
		Recipient:     to,
		Amount:        amount.String(),
		TransactionID: txID,
	}, nil
}

// Issue registers the cash state for a currency when absent and mints amount
// into the recipient's holding. Only a CentralBank party may issue.
func (s *CashService) Issue(ctx context.Context, issuerName, recipientName, currencyCode string, usdRate float64, amount decimal.Decimal) (*TransferReceipt, error) {
	issuer, err := s.dir.ByName(ctx, issuerName)
	if err != nil {
		return nil, err
	}
	if domain.Role(issuer.Role) != domain.RoleCentralBank {
		return nil, domain.ErrWrongRole
	}
	recipient, err := s.dir.ByName(ctx, recipientName)
	if err != nil {
		return nil, err
	}
	if r := domain.Role(recipient.Role); r != domain.RoleBank && r != domain.RoleCentralBank {
		return nil, domain.ErrWrongRole
	}
	if !amount.IsPositive() {
		return nil, domain.ErrNonPositiveAmount
	}

	currency, ok := domain.ParseCurrency(currencyCode)
	if !ok {
		return nil, domain.ErrUnknownCurrency
	}

	var inputs []ledger.StateRef
	var outputs []interface{}

	existing, err := s.cashStates.ByCurrency(ctx, currencyCode)
	if err != nil {
		return nil, err
	}
	if len(existing) > 1 {
		return nil, domain.ErrDuplicateCashState
	}
	if len(existing) == 0 {
		outputs = append(outputs, &models.CashState{
			RefID:          uuid.NewString(),
			LinearID:       uuid.NewString(),
			CurrencyCode:   currency.Code,
			USDPairRate:    usdRate,
			FractionDigits: currency.FractionDigits,
			Issuer:         issuerName,
		})
	}

	minted := amount
	holding, err := s.holdings.CashHolding(ctx, recipientName, currencyCode)
	if err != nil {
		return nil, err
	}
	if holding != nil {
		inputs = append(inputs, ledger.StateRef{
			Table: models.CashHolding{}.TableName(), RefID: holding.RefID,
		})
		minted = minted.Add(holding.Amount)
	}
	outputs = append(outputs, &models.CashHolding{
		RefID:        uuid.NewString(),
		Holder:       recipientName,
		CurrencyCode: currencyCode,
		Amount:       minted,
	})

	txID, err := s.committer.Commit(ctx, &ledger.Proposal{
		Inputs:      inputs,
		Outputs:     outputs,
		TxType:      models.TxTypeCashIssue,
		Description: fmt.Sprintf("issue %s %s to %s", amount.String(), currencyCode, recipientName),
		PerformedBy: issuerName,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"currency":  currencyCode,
		"amount":    amount.String(),
		"recipient": recipientName,
		"tx_id":     txID,
	}).Info("cash issued")

	return &TransferReceipt{
		CurrencyCode:  currencyCode,
		Issuer:        issuerName,
		Recipient:     recipientName,
		Amount:        amount.String(),
		TransactionID: txID,
	}, nil
}

// Balance returns the party's current balance truncated to the currency's
// precision. A party that never held tokens has a zero balance.
func (s *CashService) Balance(ctx context.Context, party, currencyCode string) (decimal.Decimal, error) {
	currency, ok := domain.ParseCurrency(currencyCode)
	if !ok {
		return decimal.Zero, domain.ErrUnknownCurrency
	}
	holding, err := s.holdings.CashHolding(ctx, party, currencyCode)
	if err != nil {
		return decimal.Zero, err
	}
	if holding == nil {
		return decimal.Zero, nil
	}
	return holding.Amount.Truncate(currency.FractionDigits), nil
}

// conflictError reports whether an error came from losing the commit race
func conflictError(err error) bool {
	return errors.Is(err, ledger.ErrInputConsumed)
}
