package repositories

import (
	"context"

	"bondledger/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormJournalRepository handles committed transaction history access
type GormJournalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

// ListByPerformer lists committed transactions performed by a party
func (r *GormJournalRepository) ListByPerformer(ctx context.Context, performer string, offset, limit int) ([]*models.LedgerTransaction, int64, error) {
	var txs []*models.LedgerTransaction
	var total int64

	r.db.WithContext(ctx).Model(&models.LedgerTransaction{}).
		Where("performed_by = ?", performer).Count(&total)

	err := r.db.WithContext(ctx).
		Where("performed_by = ?", performer).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	return txs, total, err
}
