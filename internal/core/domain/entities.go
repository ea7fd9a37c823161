package domain

import "time"

// Role represents a party role on the ledger
type Role string

const (
	RoleBank        Role = "BANK"
	RoleCentralBank Role = "CENTRAL_BANK"
	RoleObserver    Role = "OBSERVER"
	RoleNotary      Role = "NOTARY"
)

// Party represents a ledger participant
type Party struct {
	ID        uint
	Name      string
	Username  string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	PartyID   uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// BondStatus represents the lifecycle status of a term or bond
type BondStatus string

const (
	StatusActive  BondStatus = "ACTIVE"
	StatusMatured BondStatus = "MATURED"
)

// Notification statuses exchanged between parties. The status strings travel
// in the notification payload, never in persisted state.
const (
	NotifyStatusSuccess       = "Success"
	NotifyStatusNoBondsFound  = "NoBondsFound"
	NotifyStatusNotEnough     = "NotEnoughBonds"
	NotifyStatusNotLatestTerm = "NotLatestTerm"
	NotifyStatusFailed        = "Failed"
)

// BondRequestNotification is published when a bond purchase settles or fails
type BondRequestNotification struct {
	Investor     string `json:"investor"`
	Units        int    `json:"units"`
	Status       string `json:"status"`
	BondLinearID string `json:"bond_linear_id"`
}

// CouponPaymentNotification is published per bond on each coupon cycle
type CouponPaymentNotification struct {
	Issuer         string `json:"issuer"`
	NumberOfTokens int    `json:"number_of_tokens"`
	Status         string `json:"status"`
	BondLinearID   string `json:"bond_linear_id"`
	TermLinearID   string `json:"term_linear_id"`
}

// BondTransferNotification is published when the cash leg of a purchase settles
type BondTransferNotification struct {
	Units          int    `json:"units"`
	Cost           string `json:"cost"`
	TermID         string `json:"term_id"`
	BondIdentifier string `json:"bond_identifier"`
	Status         string `json:"status"`
}
