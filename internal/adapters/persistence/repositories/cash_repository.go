package repositories

import (
	"context"
	"errors"

	"bondledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormCashStateRepository handles cash denomination access
type GormCashStateRepository struct {
	db *gorm.DB
}

// NewCashStateRepository creates a new cash state repository
func NewCashStateRepository(db *gorm.DB) *GormCashStateRepository {
	return &GormCashStateRepository{db: db}
}

// ByCurrency returns all cash states for a currency code
func (r *GormCashStateRepository) ByCurrency(ctx context.Context, currencyCode string) ([]*models.CashState, error) {
	var states []*models.CashState
	err := r.db.WithContext(ctx).
		Where("currency_code = ?", currencyCode).
		Find(&states).Error
	return states, err
}

// GormHoldingRepository handles fungible holding access
type GormHoldingRepository struct {
	db *gorm.DB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *gorm.DB) *GormHoldingRepository {
	return &GormHoldingRepository{db: db}
}

// BondHolding gets the current holding of a bond, nil when none exists
func (r *GormHoldingRepository) BondHolding(ctx context.Context, holder, bondLinearID string) (*models.BondHolding, error) {
	var h models.BondHolding
	err := r.db.WithContext(ctx).
		Where("holder = ? AND bond_linear_id = ? AND consumed_at IS NULL", holder, bondLinearID).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// BondHoldingsByHolder lists the holder's current bond holdings
func (r *GormHoldingRepository) BondHoldingsByHolder(ctx context.Context, holder string) ([]*models.BondHolding, error) {
	var hs []*models.BondHolding
	err := r.db.WithContext(ctx).
		Where("holder = ? AND consumed_at IS NULL", holder).
		Find(&hs).Error
	return hs, err
}

// CashHolding gets the current cash holding of a party, nil when none exists
func (r *GormHoldingRepository) CashHolding(ctx context.Context, holder, currencyCode string) (*models.CashHolding, error) {
	var h models.CashHolding
	err := r.db.WithContext(ctx).
		Where("holder = ? AND currency_code = ? AND consumed_at IS NULL", holder, currencyCode).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
