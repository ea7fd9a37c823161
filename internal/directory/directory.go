// Package directory resolves ledger parties by role tag. Protocol instances
// receive a Directory instead of reaching for a global registry.
package directory

import (
	"context"
	"errors"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/core/domain"

	"gorm.io/gorm"
)

// Directory resolves parties by role or name
type Directory interface {
	ByName(ctx context.Context, name string) (*models.Party, error)
	ByRole(ctx context.Context, role domain.Role) ([]*models.Party, error)
	HasRole(ctx context.Context, name string, role domain.Role) (bool, error)
}

// PartyDirectory implements Directory over the party repository
type PartyDirectory struct {
	parties repositories.PartyRepository
}

// NewPartyDirectory creates a new party directory
func NewPartyDirectory(parties repositories.PartyRepository) *PartyDirectory {
	return &PartyDirectory{parties: parties}
}

// ByName resolves a party by its ledger name
func (d *PartyDirectory) ByName(ctx context.Context, name string) (*models.Party, error) {
	party, err := d.parties.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPartyNotFound
		}
		return nil, err
	}
	if !party.IsActive {
		return nil, domain.ErrPartyNotFound
	}
	return party, nil
}

// ByRole lists the active parties holding a role
func (d *PartyDirectory) ByRole(ctx context.Context, role domain.Role) ([]*models.Party, error) {
	return d.parties.ListByRole(ctx, string(role))
}

// HasRole reports whether the named party holds the role
func (d *PartyDirectory) HasRole(ctx context.Context, name string, role domain.Role) (bool, error) {
	party, err := d.ByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrPartyNotFound) {
			return false, nil
		}
		return false, err
	}
	return domain.Role(party.Role) == role, nil
}
