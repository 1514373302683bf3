package services

import (
	"context"
	"errors"
	"time"

	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/utils"
	"gorm.io/gorm"
)

// RoleLookup resolves the role set of a subject. The token issuer depends
// on this narrow capability instead of the whole identity subsystem.
type RoleLookup interface {
	Roles(ctx context.Context, subjectID string) ([]string, error)
}

// TokenIssuer mints short-lived signed access tokens. Purely stateless:
// nothing is persisted, and revoking a refresh credential never invalidates
// an already-issued access token, it only blocks renewal.
type TokenIssuer struct {
	roles   RoleLookup
	minutes int
}

func NewTokenIssuer(roles RoleLookup, cfg *config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{roles: roles, minutes: cfg.AccessTokenMinutes}
}

// CreateToken mints an access token bound to the user's identity and
// current role set.
func (s *TokenIssuer) CreateToken(ctx context.Context, user *models.User) (string, time.Time, error) {
	roles, err := s.roles.Roles(ctx, user.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return utils.GenerateToken(user.ID, user.Username, user.Email, roles, s.minutes)
}

// dbRoleLookup reads the role set from the users table.
type dbRoleLookup struct {
	db *gorm.DB
}

// NewDBRoleLookup returns a RoleLookup backed by the users table.
func NewDBRoleLookup(db *gorm.DB) RoleLookup {
	return &dbRoleLookup{db: db}
}

func (l *dbRoleLookup) Roles(ctx context.Context, subjectID string) ([]string, error) {
	var user models.User
	err := l.db.WithContext(ctx).First(&user, "id = ?", subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("services: unknown subject")
	}
	if err != nil {
		return nil, err
	}
	return user.RoleList(), nil
}
