package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Conflict categories derived from the underlying constraint violation.
const (
	ConflictDuplicate  = "duplicate"
	ConflictForeignKey = "foreign_key"
	ConflictNotNull    = "not_null"
	ConflictCheck      = "check"
)

// ConflictError is a persistence constraint violation translated into a
// category the caller can act on. The raw driver error stays inside Detail
// and is only surfaced in development mode.
type ConflictError struct {
	Category string
	Entity   string
	EntityID string
	Detail   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("persistence conflict (%s) on %s", e.Category, e.Entity)
}

func (e *ConflictError) Unwrap() error {
	return e.Detail
}

// IsTransient reports whether the error is an expected cancellation or
// timeout rather than a true fault.
func IsTransient(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// translateDBError maps gorm constraint errors to a ConflictError carrying
// entity context. Non-constraint errors pass through unchanged.
func translateDBError(err error, entity, entityID string) error {
	if err == nil {
		return nil
	}

	var category string
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		category = ConflictDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		category = ConflictForeignKey
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		category = ConflictCheck
	case isNotNullViolation(err):
		category = ConflictNotNull
	default:
		return err
	}

	return &ConflictError{
		Category: category,
		Entity:   entity,
		EntityID: entityID,
		Detail:   err,
	}
}

// isNotNullViolation falls back to message inspection; gorm has no sentinel
// for not-null violations.
func isNotNullViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not null") || strings.Contains(msg, "null value")
}
