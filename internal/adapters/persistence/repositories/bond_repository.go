package repositories

import (
	"context"
	"errors"
	"time"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/core/domain"

	"gorm.io/gorm"
)

// GormBondRepository handles bond state access
type GormBondRepository struct {
	db *gorm.DB
}

// NewBondRepository creates a new bond repository
func NewBondRepository(db *gorm.DB) *GormBondRepository {
	return &GormBondRepository{db: db}
}

// LatestByLinearID gets the current version of a bond
func (r *GormBondRepository) LatestByLinearID(ctx context.Context, linearID string) (*models.BondState, error) {
	var bond models.BondState
	err := r.db.WithContext(ctx).
		Where("linear_id = ? AND consumed_at IS NULL", linearID).
		Order("version DESC").
		First(&bond).Error
	if err != nil {
		return nil, err
	}
	return &bond, nil
}

// LatestByTermAndInvestor gets the investor's current bond for a term, nil when
// the investor holds nothing yet
func (r *GormBondRepository) LatestByTermAndInvestor(ctx context.Context, termLinearID, investor string) (*models.BondState, error) {
	var bond models.BondState
	err := r.db.WithContext(ctx).
		Where("term_linear_id = ? AND investor = ? AND consumed_at IS NULL", termLinearID, investor).
		Order("version DESC").
		First(&bond).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bond, nil
}

// ListActiveByIssuer lists the issuer's current ACTIVE bonds
func (r *GormBondRepository) ListActiveByIssuer(ctx context.Context, issuer string) ([]*models.BondState, error) {
	var bonds []*models.BondState
	err := r.db.WithContext(ctx).
		Where("issuer = ? AND bond_status = ? AND consumed_at IS NULL", issuer, string(domain.StatusActive)).
		Find(&bonds).Error
	return bonds, err
}

// ListActiveByInvestor lists the investor's current ACTIVE bonds
func (r *GormBondRepository) ListActiveByInvestor(ctx context.Context, investor string) ([]*models.BondState, error) {
	var bonds []*models.BondState
	err := r.db.WithContext(ctx).
		Where("investor = ? AND bond_status = ? AND consumed_at IS NULL", investor, string(domain.StatusActive)).
		Find(&bonds).Error
	return bonds, err
}

// ListMaturingBy lists the issuer's current ACTIVE bonds maturing on or before
// the given date
func (r *GormBondRepository) ListMaturingBy(ctx context.Context, issuer string, maturity time.Time) ([]*models.BondState, error) {
	var bonds []*models.BondState
	err := r.db.WithContext(ctx).
		Where("issuer = ? AND bond_status = ? AND consumed_at IS NULL AND maturity_date <= ?",
			issuer, string(domain.StatusActive), maturity).
		Find(&bonds).Error
	return bonds, err
}
