package config

import (
	"log"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/core/domain"
	"bondledger/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedParties(); err != nil {
		log.Printf("⚠️ Party seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedParties seeds the development party set: one central bank, two banks
// and an observer. Production parties register through the auth endpoint.
func (s *Seeder) seedParties() error {
	var count int64
	s.db.Model(&models.Party{}).Count(&count)
	if count > 0 {
		return nil // Parties already exist
	}

	hashedPassword, err := password.Hash("ledger123456")
	if err != nil {
		return err
	}

	parties := []*models.Party{
		{
			Name:     "CentralBank",
			Username: "centralbank",
			Password: hashedPassword,
			Role:     string(domain.RoleCentralBank),
			IsActive: true,
		},
		{
			Name:     "BankA",
			Username: "banka",
			Password: hashedPassword,
			Role:     string(domain.RoleBank),
			IsActive: true,
		},
		{
			Name:     "BankB",
			Username: "bankb",
			Password: hashedPassword,
			Role:     string(domain.RoleBank),
			IsActive: true,
		},
		{
			Name:     "Observer",
			Username: "observer",
			Password: hashedPassword,
			Role:     string(domain.RoleObserver),
			IsActive: true,
		},
	}

	for _, party := range parties {
		if err := s.db.Create(party).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d development parties", len(parties))
	return nil
}
