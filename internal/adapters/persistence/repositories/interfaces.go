package repositories

import (
	"context"
	"time"

	"bondledger/internal/adapters/persistence/models"
)

// MaturityCmp selects the comparison for maturity-date queries
type MaturityCmp string

const (
	MaturityLess    MaturityCmp = "lt"
	MaturityEqual   MaturityCmp = "eq"
	MaturityGreater MaturityCmp = "gt"
)

// TermFilter narrows active-term queries
type TermFilter struct {
	Currency     string
	CreditRating string
	MaturityDate *time.Time
	MaturityCmp  MaturityCmp
}

// TermRepository reads term state versions
type TermRepository interface {
	LatestByLinearID(ctx context.Context, linearID string) (*models.TermState, error)
	ListActive(ctx context.Context, filter *TermFilter) ([]*models.TermState, error)
}

// BondRepository reads bond state versions
type BondRepository interface {
	LatestByLinearID(ctx context.Context, linearID string) (*models.BondState, error)
	LatestByTermAndInvestor(ctx context.Context, termLinearID, investor string) (*models.BondState, error)
	ListActiveByIssuer(ctx context.Context, issuer string) ([]*models.BondState, error)
	ListActiveByInvestor(ctx context.Context, investor string) ([]*models.BondState, error)
	ListMaturingBy(ctx context.Context, issuer string, maturity time.Time) ([]*models.BondState, error)
}

// HoldingRepository reads fungible holdings
type HoldingRepository interface {
	BondHolding(ctx context.Context, holder, bondLinearID string) (*models.BondHolding, error)
	BondHoldingsByHolder(ctx context.Context, holder string) ([]*models.BondHolding, error)
	CashHolding(ctx context.Context, holder, currencyCode string) (*models.CashHolding, error)
}

// CashStateRepository reads cash denomination states
type CashStateRepository interface {
	// ByCurrency returns every cash state carrying the code so callers can
	// detect the at-most-one-per-currency invariant being broken.
	ByCurrency(ctx context.Context, currencyCode string) ([]*models.CashState, error)
}

// PartyRepository defines party directory access
type PartyRepository interface {
	Create(ctx context.Context, party *models.Party) error
	GetByID(ctx context.Context, id uint) (*models.Party, error)
	GetByName(ctx context.Context, name string) (*models.Party, error)
	GetByUsername(ctx context.Context, username string) (*models.Party, error)
	ListByRole(ctx context.Context, role string) ([]*models.Party, error)
	List(ctx context.Context, offset, limit int) ([]*models.Party, int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// RefreshTokenRepository defines refresh token access
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByPartyID(ctx context.Context, partyID uint) error
	DeleteExpired(ctx context.Context) error
}

// JournalRepository reads the committed transaction history
type JournalRepository interface {
	ListByPerformer(ctx context.Context, performer string, offset, limit int) ([]*models.LedgerTransaction, int64, error)
}
