package store

import (
	"context"

	"github.com/tripora/backend/internal/events"
	"github.com/tripora/backend/pkg/logger"
	"gorm.io/gorm"
)

// mutation is one deferred write. The closure runs inside the commit
// transaction; a non-nil return rolls back the whole batch.
type mutation struct {
	entity   string
	entityID string
	apply    func(tx *gorm.DB) error
}

// UnitOfWork batches entity mutations into one atomic commit and dispatches
// the domain events those entities raised, but only after the commit
// succeeded. Repositories are fixed named handles created with the unit of
// work; there is no type-keyed lookup.
//
// A UnitOfWork is not safe for concurrent use; create one per request.
type UnitOfWork struct {
	db         *gorm.DB
	tx         *gorm.DB
	pending    []mutation
	tracked    []events.Source
	dispatcher *events.Dispatcher

	Credentials *CredentialRepo
	Bookings    *BookingRepo
	Tickets     *TicketRepo
}

func New(db *gorm.DB, dispatcher *events.Dispatcher) *UnitOfWork {
	u := &UnitOfWork{db: db, dispatcher: dispatcher}
	u.Credentials = &CredentialRepo{u: u}
	u.Bookings = &BookingRepo{u: u}
	u.Tickets = &TicketRepo{u: u}
	return u
}

// session returns the connection reads should run on: the explicit
// transaction when one is open, the base handle otherwise.
func (u *UnitOfWork) session(ctx context.Context) *gorm.DB {
	if u.tx != nil {
		return u.tx.WithContext(ctx)
	}
	return u.db.WithContext(ctx)
}

// enqueue registers a deferred write and tracks the entity's event buffer
// when it has one.
func (u *UnitOfWork) enqueue(m mutation, src events.Source) {
	u.pending = append(u.pending, m)
	if src != nil {
		u.tracked = append(u.tracked, src)
	}
}

// Begin opens an explicit transaction for multi-step operations. Beginning
// when a transaction is already open is a no-op.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return nil
	}
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

// Rollback abandons the open transaction and any pending mutations.
// Rolling back with no open transaction is a no-op.
func (u *UnitOfWork) Rollback() {
	if u.tx != nil {
		u.tx.Rollback()
		u.tx = nil
	}
	u.reset()
}

// Commit persists all pending mutations as a single atomic write and, on
// success, dispatches the events accumulated on tracked entities. Events
// from a failed commit are never dispatched. Returns the number of
// persisted mutations.
func (u *UnitOfWork) Commit(ctx context.Context) (int, error) {
	batch := u.drainTracked()
	count := len(u.pending)

	if count == 0 {
		u.reset()
		if u.tx != nil {
			err := u.tx.Commit().Error
			u.tx = nil
			return 0, err
		}
		return 0, nil
	}

	var err error
	if u.tx != nil {
		err = u.applyAll(u.tx.WithContext(ctx))
		if err != nil {
			u.tx.Rollback()
		} else {
			err = u.tx.Commit().Error
		}
		u.tx = nil
	} else {
		err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return u.applyAll(tx)
		})
	}

	if err != nil {
		u.reset()
		if IsTransient(err) {
			logger.Info().Err(err).Msg("unit of work commit cancelled")
		}
		return 0, err
	}

	u.reset()
	if len(batch) > 0 && u.dispatcher != nil {
		u.dispatcher.Dispatch(ctx, batch)
	}
	return count, nil
}

func (u *UnitOfWork) applyAll(tx *gorm.DB) error {
	for _, m := range u.pending {
		if err := m.apply(tx); err != nil {
			translated := translateDBError(err, m.entity, m.entityID)
			if conflict, ok := translated.(*ConflictError); ok {
				logger.Error().
					Err(conflict.Detail).
					Str("category", conflict.Category).
					Str("entity", conflict.Entity).
					Str("entity_id", conflict.EntityID).
					Msg("constraint violation on commit")
			}
			return translated
		}
	}
	return nil
}

// drainTracked collects buffered events from every tracked entity in
// tracked order, clearing each buffer atomically with the read.
func (u *UnitOfWork) drainTracked() []events.Event {
	var batch []events.Event
	for _, src := range u.tracked {
		batch = append(batch, src.Drain()...)
	}
	return batch
}

func (u *UnitOfWork) reset() {
	u.pending = nil
	u.tracked = nil
}
