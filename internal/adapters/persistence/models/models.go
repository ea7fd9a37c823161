package models

import (
	"encoding/json"
	"time"

	"bondledger/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Parties & Auth
// ============================================================

// Party represents parties table
type Party struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;not null" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Party) TableName() string {
	return "parties"
}

// PartyResponse DTO
type PartyResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func (p *Party) ToResponse() *PartyResponse {
	return &PartyResponse{
		ID:       p.ID,
		Name:     p.Name,
		Username: p.Username,
		Role:     p.Role,
		IsActive: p.IsActive,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	PartyID   uint       `gorm:"index;not null" json:"party_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	Party     Party      `gorm:"foreignKey:PartyID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Versioned ledger states
//
// Every state mutation appends a new row carrying a fresh RefID and bumps
// Version; the superseded row is marked consumed by the committer. The latest
// unconsumed row per LinearID is the current state.
// ============================================================

// TermState represents one version of a bond offering
type TermState struct {
	RefID               string     `gorm:"primaryKey;size:36" json:"ref_id"`
	LinearID            string     `gorm:"size:36;not null;index" json:"linear_id"`
	Version             int        `gorm:"not null" json:"version"`
	Issuer              string     `gorm:"size:100;not null;index" json:"issuer"`
	Investors           string     `gorm:"type:text" json:"-"`
	BondName            string     `gorm:"size:100;not null" json:"bond_name"`
	Currency            string     `gorm:"size:3;not null;index" json:"currency"`
	CreditRating        string     `gorm:"size:5;not null;index" json:"credit_rating"`
	BondType            string     `gorm:"size:20;not null" json:"bond_type"`
	InterestRate        float64    `gorm:"type:decimal(8,5);not null" json:"interest_rate"`
	ParValue            int        `gorm:"not null" json:"par_value"`
	PaymentFrequency    int        `gorm:"column:payment_frequency_months;not null" json:"payment_frequency_in_months"`
	TotalUnits          int        `gorm:"not null" json:"total_units"`
	UnitsAvailable      int        `gorm:"not null" json:"units_available"`
	RedemptionAvailable int        `gorm:"not null" json:"redemption_available"`
	MaturityDate        time.Time  `gorm:"type:date;not null;index" json:"-"`
	BondStatus          string     `gorm:"size:10;not null;index" json:"bond_status"`
	ConsumedAt          *time.Time `gorm:"index" json:"-"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (TermState) TableName() string {
	return "term_states"
}

// InvestorSet decodes the investor list
func (t *TermState) InvestorSet() []string {
	if t.Investors == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(t.Investors), &out); err != nil {
		return nil
	}
	return out
}

// SetInvestors encodes the investor list
func (t *TermState) SetInvestors(investors []string) {
	if len(investors) == 0 {
		t.Investors = ""
		return
	}
	raw, _ := json.Marshal(investors)
	t.Investors = string(raw)
}

// HasInvestor reports whether the party already holds units of this term
func (t *TermState) HasInvestor(name string) bool {
	for _, inv := range t.InvestorSet() {
		if inv == name {
			return true
		}
	}
	return false
}

// TermStateResponse DTO, dates as yyyyMMdd
type TermStateResponse struct {
	LinearID            string   `json:"linear_id"`
	Version             int      `json:"version"`
	Issuer              string   `json:"issuer"`
	Investors           []string `json:"investors"`
	BondName            string   `json:"bond_name"`
	Currency            string   `json:"currency"`
	CreditRating        string   `json:"credit_rating"`
	BondType            string   `json:"bond_type"`
	InterestRate        float64  `json:"interest_rate"`
	ParValue            int      `json:"par_value"`
	PaymentFrequency    int      `json:"payment_frequency_in_months"`
	TotalUnits          int      `json:"total_units"`
	UnitsAvailable      int      `json:"units_available"`
	RedemptionAvailable int      `json:"redemption_available"`
	MaturityDate        string   `json:"maturity_date"`
	BondStatus          string   `json:"bond_status"`
}

func (t *TermState) ToResponse() *TermStateResponse {
	return &TermStateResponse{
		LinearID:            t.LinearID,
		Version:             t.Version,
		Issuer:              t.Issuer,
		Investors:           t.InvestorSet(),
		BondName:            t.BondName,
		Currency:            t.Currency,
		CreditRating:        t.CreditRating,
		BondType:            t.BondType,
		InterestRate:        t.InterestRate,
		ParValue:            t.ParValue,
		PaymentFrequency:    t.PaymentFrequency,
		TotalUnits:          t.TotalUnits,
		UnitsAvailable:      t.UnitsAvailable,
		RedemptionAvailable: t.RedemptionAvailable,
		MaturityDate:        domain.FormatDate(t.MaturityDate),
		BondStatus:          t.BondStatus,
	}
}

// BondState represents one version of an investor position against a term
type BondState struct {
	RefID             string     `gorm:"primaryKey;size:36" json:"ref_id"`
	LinearID          string     `gorm:"size:36;not null;index" json:"linear_id"`
	Version           int        `gorm:"not null" json:"version"`
	TermLinearID      string     `gorm:"size:36;not null;index" json:"term_linear_id"`
	Issuer            string     `gorm:"size:100;not null;index" json:"issuer"`
	Investor          string     `gorm:"size:100;not null;index" json:"investor"`
	BondName          string     `gorm:"size:100;not null" json:"bond_name"`
	Currency          string     `gorm:"size:3;not null" json:"currency"`
	CreditRating      string     `gorm:"size:5;not null" json:"credit_rating"`
	BondType          string     `gorm:"size:20;not null" json:"bond_type"`
	InterestRate      float64    `gorm:"type:decimal(8,5);not null" json:"interest_rate"`
	ParValue          int        `gorm:"not null" json:"par_value"`
	PaymentFrequency  int        `gorm:"column:payment_frequency_months;not null" json:"payment_frequency_in_months"`
	CouponPaymentLeft int        `gorm:"not null" json:"coupon_payment_left"`
	IssueDate         time.Time  `gorm:"type:date;not null" json:"-"`
	NextCouponDate    *time.Time `gorm:"type:date" json:"-"`
	MaturityDate      time.Time  `gorm:"type:date;not null;index" json:"-"`
	BondStatus        string     `gorm:"size:10;not null;index" json:"bond_status"`
	ConsumedAt        *time.Time `gorm:"index" json:"-"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (BondState) TableName() string {
	return "bond_states"
}

// BondStateResponse DTO, dates as yyyyMMdd
type BondStateResponse struct {
	LinearID          string  `json:"linear_id"`
	Version           int     `json:"version"`
	TermLinearID      string  `json:"term_linear_id"`
	Issuer            string  `json:"issuer"`
	Investor          string  `json:"investor"`
	BondName          string  `json:"bond_name"`
	Currency          string  `json:"currency"`
	CreditRating      string  `json:"credit_rating"`
	BondType          string  `json:"bond_type"`
	InterestRate      float64 `json:"interest_rate"`
	ParValue          int     `json:"par_value"`
	PaymentFrequency  int     `json:"payment_frequency_in_months"`
	CouponPaymentLeft int     `json:"coupon_payment_left"`
	IssueDate         string  `json:"issue_date"`
	NextCouponDate    string  `json:"next_coupon_date"`
	MaturityDate      string  `json:"maturity_date"`
	BondStatus        string  `json:"bond_status"`
}

func (b *BondState) ToResponse() *BondStateResponse {
	next := ""
	if b.NextCouponDate != nil {
		next = domain.FormatDate(*b.NextCouponDate)
	}
	return &BondStateResponse{
		LinearID:          b.LinearID,
		Version:           b.Version,
		TermLinearID:      b.TermLinearID,
		Issuer:            b.Issuer,
		Investor:          b.Investor,
		BondName:          b.BondName,
		Currency:          b.Currency,
		CreditRating:      b.CreditRating,
		BondType:          b.BondType,
		InterestRate:      b.InterestRate,
		ParValue:          b.ParValue,
		PaymentFrequency:  b.PaymentFrequency,
		CouponPaymentLeft: b.CouponPaymentLeft,
		IssueDate:         domain.FormatDate(b.IssueDate),
		NextCouponDate:    next,
		MaturityDate:      domain.FormatDate(b.MaturityDate),
		BondStatus:        b.BondStatus,
	}
}

// CashState represents a currency denomination on the ledger.
// At most one row per currency per issuer.
type CashState struct {
	RefID          string    `gorm:"primaryKey;size:36" json:"ref_id"`
	LinearID       string    `gorm:"size:36;not null;index" json:"linear_id"`
	CurrencyCode   string    `gorm:"size:3;not null;index" json:"currency_code"`
	USDPairRate    float64   `gorm:"type:decimal(18,8);not null" json:"usd_pair_rate"`
	FractionDigits int32     `gorm:"not null" json:"fraction_digits"`
	Issuer         string    `gorm:"size:100;not null" json:"issuer"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CashState) TableName() string {
	return "cash_states"
}

// ============================================================
// Fungible holdings
//
// Holdings are versioned the same way as entity states so a cash movement and
// a term/bond update consume and produce rows inside one committed
// transaction.
// ============================================================

// BondHolding represents a fungible amount of bond units held by an investor
type BondHolding struct {
	RefID        string     `gorm:"primaryKey;size:36" json:"ref_id"`
	Holder       string     `gorm:"size:100;not null;index" json:"holder"`
	BondLinearID string     `gorm:"size:36;not null;index" json:"bond_linear_id"`
	Amount       int        `gorm:"not null" json:"amount"`
	ConsumedAt   *time.Time `gorm:"index" json:"-"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (BondHolding) TableName() string {
	return "bond_holdings"
}

// CashHolding represents a fungible cash amount held by a party
type CashHolding struct {
	RefID        string          `gorm:"primaryKey;size:36" json:"ref_id"`
	Holder       string          `gorm:"size:100;not null;index" json:"holder"`
	CurrencyCode string          `gorm:"size:3;not null;index" json:"currency_code"`
	Amount       decimal.Decimal `gorm:"type:decimal(30,10);not null" json:"amount"`
	ConsumedAt   *time.Time      `gorm:"index" json:"-"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (CashHolding) TableName() string {
	return "cash_holdings"
}

// ============================================================
// Committed transaction journal
// ============================================================

// LedgerTransaction is an append-only record of a committed ledger transaction
type LedgerTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TxID        string    `gorm:"uniqueIndex;size:36;not null" json:"tx_id"`
	TxType      string    `gorm:"size:50;not null" json:"tx_type"`
	Description string    `gorm:"type:text" json:"description"`
	PerformedBy string    `gorm:"size:100;not null;index" json:"performed_by"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// Transaction types
const (
	TxTypeTermCreate   = "TERM_CREATE"
	TxTypeBondRequest  = "BOND_REQUEST"
	TxTypeCouponPay    = "COUPON_PAYMENT"
	TxTypeRedemption   = "REDEMPTION"
	TxTypeCashIssue    = "CASH_ISSUE"
	TxTypeCashTransfer = "CASH_TRANSFER"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all ledger tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Party{},
		&RefreshToken{},
		&TermState{},
		&BondState{},
		&CashState{},
		&BondHolding{},
		&CashHolding{},
		&LedgerTransaction{},
	)
}

// ============================================================
// State reference accessors
//
// The committer indexes output rows by (table, ref id); versioned models
// expose both through these methods.
// ============================================================

func (t *TermState) StateRefID() string   { return t.RefID }
func (b *BondState) StateRefID() string   { return b.RefID }
func (c *CashState) StateRefID() string   { return c.RefID }
func (h *BondHolding) StateRefID() string { return h.RefID }
func (h *CashHolding) StateRefID() string { return h.RefID }
