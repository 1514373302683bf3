package store

import (
	"context"
	"errors"
	"time"

	"github.com/tripora/backend/internal/models"
	"gorm.io/gorm"
)

// ErrRotationConflict reports that a conditional revoke touched zero rows:
// another rotation already consumed the credential.
var ErrRotationConflict = errors.New("store: credential already revoked by concurrent rotation")

// ErrNotFound is returned by repository reads when no row matches.
var ErrNotFound = errors.New("store: not found")

// --- Credentials ---

// CredentialRepo reads and mutates refresh credentials through the owning
// unit of work.
type CredentialRepo struct {
	u *UnitOfWork
}

// FindBySecretHash loads the credential matching a secret digest.
func (r *CredentialRepo) FindBySecretHash(ctx context.Context, hash string) (*models.RefreshCredential, error) {
	var cred models.RefreshCredential
	err := r.u.session(ctx).Where("secret_hash = ?", hash).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// LiveBySubject lists all non-revoked, non-expired credentials of a subject.
func (r *CredentialRepo) LiveBySubject(ctx context.Context, subjectID string, now time.Time) ([]models.RefreshCredential, error) {
	var creds []models.RefreshCredential
	err := r.u.session(ctx).
		Where("subject_id = ? AND revoked_at IS NULL AND expires_at > ?", subjectID, now).
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// Create stages a new credential row.
func (r *CredentialRepo) Create(cred *models.RefreshCredential) {
	r.u.enqueue(mutation{
		entity:   "refresh_credential",
		entityID: cred.ID,
		apply: func(tx *gorm.DB) error {
			return tx.Create(cred).Error
		},
	}, nil)
}

// RevokeIfLive stages a conditional one-way revoke of a single credential.
// The guard on revoked_at serializes racing rotations of the same secret:
// only one transaction can transition the row, the loser fails the whole
// batch with ErrRotationConflict.
func (r *CredentialRepo) RevokeIfLive(id string, now time.Time) {
	r.u.enqueue(mutation{
		entity:   "refresh_credential",
		entityID: id,
		apply: func(tx *gorm.DB) error {
			res := tx.Model(&models.RefreshCredential{}).
				Where("id = ? AND revoked_at IS NULL", id).
				Update("revoked_at", now)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRotationConflict
			}
			return nil
		},
	}, nil)
}

// RevokeAllForSubject stages a revoke of every live credential owned by the
// subject. Used by the reuse-detection cascade.
func (r *CredentialRepo) RevokeAllForSubject(subjectID string, now time.Time) {
	r.u.enqueue(mutation{
		entity:   "refresh_credential",
		entityID: subjectID,
		apply: func(tx *gorm.DB) error {
			return tx.Model(&models.RefreshCredential{}).
				Where("subject_id = ? AND revoked_at IS NULL", subjectID).
				Update("revoked_at", now).Error
		},
	}, nil)
}

// RevokeBySecretHash stages an unconditional revoke by digest. Touching
// zero rows is not an error; revocation is idempotent and must not leak
// whether a credential existed.
func (r *CredentialRepo) RevokeBySecretHash(hash string, now time.Time) {
	r.u.enqueue(mutation{
		entity:   "refresh_credential",
		entityID: "",
		apply: func(tx *gorm.DB) error {
			return tx.Model(&models.RefreshCredential{}).
				Where("secret_hash = ? AND revoked_at IS NULL", hash).
				Update("revoked_at", now).Error
		},
	}, nil)
}

// DeleteStale removes expired credentials and revoked ones older than the
// retention cutoff. Runs immediately; the janitor does not batch.
func (r *CredentialRepo) DeleteStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	cutoff := now.Add(-retention)
	res := r.u.session(ctx).
		Where("expires_at <= ? OR (revoked_at IS NOT NULL AND revoked_at <= ?)", now, cutoff).
		Delete(&models.RefreshCredential{})
	return res.RowsAffected, res.Error
}

// --- Bookings ---

type BookingRepo struct {
	u *UnitOfWork
}

func (r *BookingRepo) Find(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := r.u.session(ctx).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create stages a new booking and tracks its event buffer.
func (r *BookingRepo) Create(b *models.Booking) {
	r.u.enqueue(mutation{
		entity:   "booking",
		entityID: b.ID,
		apply: func(tx *gorm.DB) error {
			return tx.Create(b).Error
		},
	}, b)
}

// Save stages an update of a loaded booking and tracks its event buffer.
func (r *BookingRepo) Save(b *models.Booking) {
	r.u.enqueue(mutation{
		entity:   "booking",
		entityID: b.ID,
		apply: func(tx *gorm.DB) error {
			return tx.Save(b).Error
		},
	}, b)
}

// --- Tickets ---

type TicketRepo struct {
	u *UnitOfWork
}

func (r *TicketRepo) Find(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	err := r.u.session(ctx).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepo) ListByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	var ts []models.Ticket
	err := r.u.session(ctx).Where("booking_id = ?", bookingID).Find(&ts).Error
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *TicketRepo) Create(t *models.Ticket) {
	r.u.enqueue(mutation{
		entity:   "ticket",
		entityID: t.ID,
		apply: func(tx *gorm.DB) error {
			return tx.Create(t).Error
		},
	}, t)
}

func (r *TicketRepo) Save(t *models.Ticket) {
	r.u.enqueue(mutation{
		entity:   "ticket",
		entityID: t.ID,
		apply: func(tx *gorm.DB) error {
			return tx.Save(t).Error
		},
	}, t)
}
