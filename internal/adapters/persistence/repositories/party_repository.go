package repositories

import (
	"context"

	"bondledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormPartyRepository handles party directory access
type GormPartyRepository struct {
	db *gorm.DB
}

// NewPartyRepository creates a new party repository
func NewPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// Create creates a new party
func (r *GormPartyRepository) Create(ctx context.Context, party *models.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

// GetByID gets a party by ID
func (r *GormPartyRepository) GetByID(ctx context.Context, id uint) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).First(&party, id).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

// GetByName gets a party by its ledger name
func (r *GormPartyRepository) GetByName(ctx context.Context, name string) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

// GetByUsername gets a party by login username
func (r *GormPartyRepository) GetByUsername(ctx context.Context, username string) (*models.Party, error) {
	var party models.Party
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&party).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

// ListByRole lists active parties holding a role
func (r *GormPartyRepository) ListByRole(ctx context.Context, role string) ([]*models.Party, error) {
	var parties []*models.Party
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("name ASC").
		Find(&parties).Error
	return parties, err
}

// List lists parties with pagination
func (r *GormPartyRepository) List(ctx context.Context, offset, limit int) ([]*models.Party, int64, error) {
	var parties []*models.Party
	var total int64

	r.db.WithContext(ctx).Model(&models.Party{}).Count(&total)

	err := r.db.WithContext(ctx).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&parties).Error
	return parties, total, err
}

// ExistsByName checks whether a party name is taken
func (r *GormPartyRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Party{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}
