package ledger

import (
	"context"
	"time"

	"bondledger/internal/adapters/persistence/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GormCommitter commits proposals against the database. Input consumption is a
// conditional update on consumed_at, so two transactions racing for the same
// input serialize on the row and exactly one of them wins.
type GormCommitter struct {
	db  *gorm.DB
	log *logrus.Entry
}

// NewGormCommitter creates a database-backed committer
func NewGormCommitter(db *gorm.DB, log *logrus.Logger) *GormCommitter {
	return &GormCommitter{
		db:  db,
		log: log.WithField("component", "committer"),
	}
}

// Commit consumes every input reference and appends every output row inside a
// single database transaction. If any input was already consumed the whole
// transaction rolls back with ErrInputConsumed.
func (c *GormCommitter) Commit(ctx context.Context, p *Proposal) (string, error) {
	if len(p.Outputs) == 0 {
		return "", ErrEmptyProposal
	}

	txID := uuid.NewString()
	now := time.Now()

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, in := range p.Inputs {
			res := tx.Table(in.Table).
				Where("ref_id = ? AND consumed_at IS NULL", in.RefID).
				Update("consumed_at", now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ErrInputConsumed
			}
		}

		for _, out := range p.Outputs {
			if err := tx.Create(out).Error; err != nil {
				return err
			}
		}

		journal := &models.LedgerTransaction{
			TxID:        txID,
			TxType:      p.TxType,
			Description: p.Description,
			PerformedBy: p.PerformedBy,
		}
		return tx.Create(journal).Error
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"tx_type":   p.TxType,
			"inputs":    len(p.Inputs),
			"outputs":   len(p.Outputs),
			"performer": p.PerformedBy,
		}).WithError(err).Warn("proposal rejected")
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"tx_id":   txID,
		"tx_type": p.TxType,
		"inputs":  len(p.Inputs),
		"outputs": len(p.Outputs),
	}).Info("transaction committed")
	return txID, nil
}
