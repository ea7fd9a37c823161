package repositories

import (
	"context"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/core/domain"

	"gorm.io/gorm"
)

// GormTermRepository handles term state access
type GormTermRepository struct {
	db *gorm.DB
}

// NewTermRepository creates a new term repository
func NewTermRepository(db *gorm.DB) *GormTermRepository {
	return &GormTermRepository{db: db}
}

// LatestByLinearID gets the current (unconsumed) version of a term
func (r *GormTermRepository) LatestByLinearID(ctx context.Context, linearID string) (*models.TermState, error) {
	var term models.TermState
	err := r.db.WithContext(ctx).
		Where("linear_id = ? AND consumed_at IS NULL", linearID).
		Order("version DESC").
		First(&term).Error
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// ListActive lists current ACTIVE terms matching the filter
func (r *GormTermRepository) ListActive(ctx context.Context, filter *TermFilter) ([]*models.TermState, error) {
	q := r.db.WithContext(ctx).
		Where("consumed_at IS NULL AND bond_status = ?", string(domain.StatusActive))

	if filter != nil {
		if filter.Currency != "" {
			q = q.Where("currency = ?", filter.Currency)
		}
		if filter.CreditRating != "" {
			q = q.Where("credit_rating = ?", filter.CreditRating)
		}
		if filter.MaturityDate != nil {
			switch filter.MaturityCmp {
			case MaturityLess:
				q = q.Where("maturity_date < ?", *filter.MaturityDate)
			case MaturityGreater:
				q = q.Where("maturity_date > ?", *filter.MaturityDate)
			default:
				q = q.Where("maturity_date = ?", *filter.MaturityDate)
			}
		}
	}

	var terms []*models.TermState
	err := q.Order("created_at DESC").Find(&terms).Error
	return terms, err
}
