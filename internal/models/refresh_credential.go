package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshCredential is a persisted long-lived refresh secret, stored only as
// a one-way digest. The raw secret is handed to the client once at issuance
// and never written anywhere.
type RefreshCredential struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	SubjectID  string     `gorm:"index;size:36;not null" json:"subject_id"`
	SecretHash string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	IssuedAt   time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (RefreshCredential) TableName() string { return "refresh_credentials" }

func (c *RefreshCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsExpired reports whether the credential has passed its expiry.
func (c *RefreshCredential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// IsRevoked reports whether the credential has been revoked.
func (c *RefreshCredential) IsRevoked() bool {
	return c.RevokedAt != nil
}

// Revoke marks the credential dead. The transition is one-way and
// idempotent: revoking an already-revoked credential keeps the original
// timestamp.
func (c *RefreshCredential) Revoke(now time.Time) {
	if c.RevokedAt == nil {
		c.RevokedAt = &now
	}
}
