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
	"github.com/sirupsen/logrus"
)

// minMaturityLead is the minimum distance between term creation and maturity
const minMaturityLead = 30 * 24 * time.Hour

// TermService enforces creation and update invariants for bond offerings
type TermService struct {
	terms     repositories.TermRepository
	dir       directory.Directory
	committer ledger.Committer
	log       *logrus.Entry
}

// NewTermService creates a new term service
func NewTermService(
	terms repositories.TermRepository,
	dir directory.Directory,
	committer ledger.Committer,
	log *logrus.Logger,
) *TermService {
	return &TermService{
		terms:     terms,
		dir:       dir,
		committer: committer,
		log:       log.WithField("component", "terms"),
	}
}

// CreateTermInput represents create term input
type CreateTermInput struct {
	BondName            string  `json:"bond_name" validate:"required"`
	InterestRate        float64 `json:"interest_rate"`
	ParValue            int     `json:"par_value" validate:"required"`
	UnitsAvailable      int     `json:"units_available" validate:"required"`
	RedemptionAvailable int     `json:"redemption_available"`
	MaturityDate        string  `json:"maturity_date" validate:"required"`
	BondType            string  `json:"bond_type" validate:"required"`
	Currency            string  `json:"currency" validate:"required"`
	CreditRating        string  `json:"credit_rating" validate:"required"`
	PaymentFrequency    int     `json:"payment_frequency_in_months" validate:"required"`
}

// CreateTerm validates and commits a new bond offering. The issuer must hold
// the Bank role; every violated predicate aborts the whole transaction.
func (s *TermService) CreateTerm(ctx context.Context, issuerName string, input *CreateTermInput) (*models.TermState, string, error) {
	isBank, err := s.dir.HasRole(ctx, issuerName, domain.RoleBank)
	if err != nil {
		return nil, "", err
	}
	if !isBank {
		return nil, "", domain.ErrIssuerNotBank
	}

	if input.ParValue < 100 || input.ParValue > 1000 {
		return nil, "", domain.ErrParValueOutOfRange
	}
	if input.InterestRate < 0 {
		return nil, "", domain.ErrInvalidInput
	}
	if input.PaymentFrequency < 1 || input.PaymentFrequency > 12 {
		return nil, "", domain.ErrPaymentFrequencyInvalid
	}
	if input.UnitsAvailable <= 0 {
		return nil, "", domain.ErrNoUnitsOffered
	}
	if input.RedemptionAvailable != 0 {
		return nil, "", domain.ErrRedemptionNotZero
	}

	maturity, err := domain.ParseDate(input.MaturityDate)
	if err != nil {
		return nil, "", err
	}
	if !maturity.After(time.Now().Add(minMaturityLead)) {
		return nil, "", domain.ErrMaturityTooSoon
	}

	currency, ok := domain.ParseCurrency(input.Currency)
	if !ok {
		return nil, "", domain.ErrUnknownCurrency
	}
	rating := domain.ParseCreditRating(input.CreditRating)
	if !rating.IsRated() {
		return nil, "", domain.ErrUnratedTerm
	}
	bondType := domain.ParseBondType(input.BondType)
	if !bondType.IsTyped() {
		return nil, "", domain.ErrUntypedTerm
	}

	term := &models.TermState{
		RefID:               uuid.NewString(),
		LinearID:            uuid.NewString(),
		Version:             1,
		Issuer:              issuerName,
		BondName:            input.BondName,
		Currency:            currency.Code,
		CreditRating:        string(rating),
		BondType:            string(bondType),
		InterestRate:        input.InterestRate,
		ParValue:            input.ParValue,
		PaymentFrequency:    input.PaymentFrequency,
		TotalUnits:          input.UnitsAvailable,
		UnitsAvailable:      input.UnitsAvailable,
		RedemptionAvailable: 0,
		MaturityDate:        maturity,
		BondStatus:          string(domain.StatusActive),
	}

	txID, err := s.committer.Commit(ctx, &ledger.Proposal{
		Outputs:     []interface{}{term},
		TxType:      models.TxTypeTermCreate,
		Description: fmt.Sprintf("create term %s (%d units)", input.BondName, input.UnitsAvailable),
		PerformedBy: issuerName,
	})
	if err != nil {
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{
		"linear_id": term.LinearID,
		"issuer":    issuerName,
		"units":     term.UnitsAvailable,
		"tx_id":     txID,
	}).Info("term created")
	return term, txID, nil
}

// ValidateTermUpdate checks the single invariant guarding against over-selling
// plus the immutability of the descriptive fields. Any violation aborts the
// proposed transaction before it reaches the committer.
func ValidateTermUpdate(old, updated *models.TermState) error {
	if updated.Issuer != old.Issuer ||
		updated.Currency != old.Currency ||
		updated.BondName != old.BondName ||
		updated.ParValue != old.ParValue ||
		updated.PaymentFrequency != old.PaymentFrequency {
		return domain.ErrTermFieldImmutable
	}
	if updated.UnitsAvailable < 0 || updated.UnitsAvailable > old.TotalUnits {
		return domain.ErrUnitsOutOfBounds
	}
	if updated.RedemptionAvailable != updated.TotalUnits-updated.UnitsAvailable {
		return domain.ErrUnitConservation
	}
	return nil
}

// NextTermVersion clones a term state into its successor version. The caller
// mutates the clone, validates it with ValidateTermUpdate, and commits it
// while consuming the old reference.
func NextTermVersion(old *models.TermState) *models.TermState {
	next := *old
	next.RefID = uuid.NewString()
	next.Version = old.Version + 1
	next.ConsumedAt = nil
	next.CreatedAt = time.Time{}
	return &next
}

// GetByLinearID returns the current version of a term
func (s *TermService) GetByLinearID(ctx context.Context, linearID string) (*models.TermState, error) {
	term, err := s.terms.LatestByLinearID(ctx, linearID)
	if err != nil {
		return nil, domain.ErrTermNotFound
	}
	return term, nil
}

// ListActive lists current ACTIVE terms matching the filter
func (s *TermService) ListActive(ctx context.Context, filter *repositories.TermFilter) ([]*models.TermState, error) {
	return s.terms.ListActive(ctx, filter)
}
