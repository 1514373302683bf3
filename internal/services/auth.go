package services

import (
	"context"
	"errors"
	"time"

	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/utils"
	"gorm.io/gorm"
)

var ErrInvalidLogin = errors.New("services: invalid username or password")

// AuthService orchestrates login: password verification, access token mint,
// refresh credential issuance.
type AuthService struct {
	db          *gorm.DB
	tokens      *TokenIssuer
	credentials *CredentialService
}

func NewAuthService(db *gorm.DB, tokens *TokenIssuer, credentials *CredentialService) *AuthService {
	return &AuthService{db: db, tokens: tokens, credentials: credentials}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshSecret    string
	RefreshExpiresAt time.Time
	User             *models.User
}

type RefreshResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshSecret    string
	RefreshExpiresAt time.Time
}

// Login authenticates a user and returns an access token plus a freshly
// issued refresh credential.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidLogin
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidLogin
	}

	accessToken, accessExp, err := s.tokens.CreateToken(ctx, &user)
	if err != nil {
		return nil, err
	}
	refreshSecret, refreshExp, err := s.credentials.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.WithContext(ctx).Model(&user).Update("last_login", now)

	return &LoginResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshSecret:    refreshSecret,
		RefreshExpiresAt: refreshExp,
		User:             &user,
	}, nil
}

// Refresh rotates the presented refresh secret and mints a new access
// token for its owner.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string) (*RefreshResult, error) {
	if refreshSecret == "" {
		return nil, ErrInvalidCredential
	}

	rotation, err := s.credentials.Rotate(ctx, refreshSecret)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", rotation.SubjectID).Error; err != nil {
		return nil, ErrInvalidCredential
	}
	if !user.IsActive {
		return nil, ErrInvalidCredential
	}

	accessToken, accessExp, err := s.tokens.CreateToken(ctx, &user)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshSecret:    rotation.Secret,
		RefreshExpiresAt: rotation.ExpiresAt,
	}, nil
}

// Logout revokes the presented refresh secret. Always succeeds from the
// caller's perspective.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) error {
	return s.credentials.Revoke(ctx, refreshSecret)
}

// GetUserByID retrieves a user by ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the default admin account.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("roles LIKE ?", "%admin%").Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}
	admin := models.User{
		Username: "admin",
		Password: hashed,
		FullName: "Administrator",
		Roles:    "admin",
		IsActive: true,
	}
	return s.db.Create(&admin).Error
}
