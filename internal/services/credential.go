package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/internal/events"
	"github.com/tripora/backend/internal/models"
	"github.com/tripora/backend/internal/store"
	"github.com/tripora/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredential covers both unknown and expired secrets. Callers
	// redirect to login; nothing about the credential's history is revealed.
	ErrInvalidCredential = errors.New("services: invalid refresh credential")

	// ErrCredentialReuse means an already-revoked secret was presented
	// again. Every live credential of the subject has been revoked as a
	// consequence; the caller must force a full re-login.
	ErrCredentialReuse = errors.New("services: refresh credential reuse detected")
)

// secretBytes is the entropy of a refresh secret before encoding.
const secretBytes = 64

// CredentialService issues, rotates, and revokes refresh credentials.
// Rotation is single-use: a successful rotation invalidates the presented
// secret, so any later reuse of it becomes a detectable compromise signal.
type CredentialService struct {
	db         *gorm.DB
	dispatcher *events.Dispatcher
	lifetime   time.Duration
	now        func() time.Time
}

// RotationResult is the outcome of a successful rotation.
type RotationResult struct {
	SubjectID string
	Secret    string
	ExpiresAt time.Time
}

func NewCredentialService(db *gorm.DB, dispatcher *events.Dispatcher, cfg *config.AuthConfig) *CredentialService {
	return &CredentialService{
		db:         db,
		dispatcher: dispatcher,
		lifetime:   time.Duration(cfg.RefreshLifetimeDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *CredentialService) SetClock(now func() time.Time) {
	s.now = now
}

// Issue creates a fresh refresh credential for a subject and returns the
// raw secret. Only the sha256 digest is persisted.
func (s *CredentialService) Issue(ctx context.Context, subjectID string) (string, time.Time, error) {
	secret, hash, err := generateSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	cred := &models.RefreshCredential{
		SubjectID:  subjectID,
		SecretHash: hash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.lifetime),
	}

	uow := store.New(s.db, s.dispatcher)
	uow.Credentials.Create(cred)
	if _, err := uow.Commit(ctx); err != nil {
		return "", time.Time{}, err
	}
	return secret, cred.ExpiresAt, nil
}

// Rotate exchanges a presented secret for a brand-new credential, revoking
// the presented one. Presenting a secret that was already rotated or
// revoked triggers the reuse cascade: all of the subject's live credentials
// are revoked and the call fails with ErrCredentialReuse.
func (s *CredentialService) Rotate(ctx context.Context, presentedSecret string) (*RotationResult, error) {
	hash := hashSecret(presentedSecret)
	now := s.now()

	uow := store.New(s.db, s.dispatcher)
	cred, err := uow.Credentials.FindBySecretHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if cred.IsRevoked() {
		return nil, s.handleReuse(ctx, cred)
	}
	if cred.IsExpired(now) {
		return nil, ErrInvalidCredential
	}

	secret, newHash, err := generateSecret()
	if err != nil {
		return nil, err
	}
	next := &models.RefreshCredential{
		SubjectID:  cred.SubjectID,
		SecretHash: newHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.lifetime),
	}

	// Revoke-old and create-new commit atomically. The conditional revoke
	// serializes racing rotations of the same secret: the loser's batch
	// rolls back and is treated as reuse.
	uow.Credentials.RevokeIfLive(cred.ID, now)
	uow.Credentials.Create(next)
	if _, err := uow.Commit(ctx); err != nil {
		if errors.Is(err, store.ErrRotationConflict) {
			return nil, s.handleReuse(ctx, cred)
		}
		return nil, err
	}

	return &RotationResult{
		SubjectID: cred.SubjectID,
		Secret:    secret,
		ExpiresAt: next.ExpiresAt,
	}, nil
}

// handleReuse revokes every live credential of the subject. A revoked
// secret showing up again is either a benign refresh race or a replayed
// stolen secret; the service cannot tell, so it bounds the blast radius by
// logging the subject out everywhere.
func (s *CredentialService) handleReuse(ctx context.Context, cred *models.RefreshCredential) error {
	logger.Warn().
		Str("subject_id", cred.SubjectID).
		Str("credential_id", cred.ID).
		Msg("refresh credential reuse detected, revoking all live credentials for subject")

	uow := store.New(s.db, s.dispatcher)
	uow.Credentials.RevokeAllForSubject(cred.SubjectID, s.now())
	if _, err := uow.Commit(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("subject_id", cred.SubjectID).
			Msg("reuse cascade revoke failed")
		return err
	}
	return ErrCredentialReuse
}

// Revoke marks the credential matching the presented secret as revoked.
// Unknown secrets and double revocations succeed silently: revocation must
// not leak whether a credential exists.
func (s *CredentialService) Revoke(ctx context.Context, presentedSecret string) error {
	if presentedSecret == "" {
		return nil
	}
	uow := store.New(s.db, s.dispatcher)
	uow.Credentials.RevokeBySecretHash(hashSecret(presentedSecret), s.now())
	_, err := uow.Commit(ctx)
	return err
}

func generateSecret() (secret string, hash string, err error) {
	buf := make([]byte, secretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, hashSecret(secret), nil
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
