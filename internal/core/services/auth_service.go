package services

import (
	"context"
	"errors"

	"bondledger/internal/adapters/persistence/models"
	"bondledger/internal/adapters/persistence/repositories"
	"bondledger/internal/config"
	"bondledger/internal/core/domain"
	"bondledger/internal/pkg/jwt"
	"bondledger/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthService handles party authentication
type AuthService struct {
	partyRepo        repositories.PartyRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	cfg              *config.Config
	log              *logrus.Entry
}

// NewAuthService creates a new auth service
func NewAuthService(
	partyRepo repositories.PartyRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
	log *logrus.Logger,
) *AuthService {
	return &AuthService{
		partyRepo:        partyRepo,
		refreshTokenRepo: refreshTokenRepo,
		cfg:              cfg,
		log:              log.WithField("component", "auth"),
	}
}

// RegisterInput represents party registration input
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required"`
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Party        *models.PartyResponse `json:"party"`
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
}

// validRoles are the roles a party can be registered with
var validRoles = map[domain.Role]bool{
	domain.RoleBank:        true,
	domain.RoleCentralBank: true,
	domain.RoleObserver:    true,
	domain.RoleNotary:      true,
}

// Register registers a new ledger party
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	if !validRoles[domain.Role(input.Role)] {
		return nil, domain.ErrWrongRole
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.ErrInvalidInput
	}

	exists, err := s.partyRepo.ExistsByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrPartyAlreadyExists
	}

	if _, err := s.partyRepo.GetByUsername(ctx, input.Username); err == nil {
		return nil, domain.ErrPartyAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	party := &models.Party{
		Name:     input.Name,
		Username: input.Username,
		Password: hashed,
		Role:     input.Role,
		IsActive: true,
	}
	if err := s.partyRepo.Create(ctx, party); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(party)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, party.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"party": party.Name,
		"role":  party.Role,
	}).Info("party registered")

	return &AuthResponse{
		Party:        party.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login authenticates a party
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	party, err := s.partyRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !party.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	if !password.Verify(input.Password, party.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.generateTokens(party)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, party.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	s.log.WithField("party", party.Name).Info("party logged in")

	return &AuthResponse{
		Party:        party.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Refresh rotates a refresh token and issues a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	tokenHash := password.HashToken(refreshToken)
	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if stored.IsRevoked() {
		return nil, domain.ErrTokenInvalid
	}
	if stored.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	party, err := s.partyRepo.GetByID(ctx, claims.PartyID)
	if err != nil {
		return nil, domain.ErrPartyNotFound
	}
	if !party.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	// Rotation: the presented token dies with this exchange
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(party)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, party.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		Party:        party.ToResponse(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Logout revokes the presented refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token of a party
func (s *AuthService) LogoutAll(ctx context.Context, partyID uint) error {
	return s.refreshTokenRepo.RevokeAllByPartyID(ctx, partyID)
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetPartyByID gets a party by ID
func (s *AuthService) GetPartyByID(ctx context.Context, partyID uint) (*models.Party, error) {
	return s.partyRepo.GetByID(ctx, partyID)
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(party *models.Party) (*domain.TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		party.ID,
		party.Name,
		party.Username,
		party.Role,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		party.ID,
		uuid.NewString(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, partyID uint, refreshToken string) error {
	token := &models.RefreshToken{
		PartyID:   partyID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}
