package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds surfaced by the admission core. Callers match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrMissingGPA     = errors.New("gpa not on file")
	ErrMalformedInput = errors.New("malformed input")
	ErrConflict       = errors.New("conflict")
	ErrStoreFailure   = errors.New("store failure")

	// ErrUnauthenticated is raised at the identity boundary, never by the core
	ErrUnauthenticated = errors.New("unauthenticated")
)

// storeError classifies a GORM error into one of the kinds above, keeping the
// original error in the chain for logs.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMissingGPA),
		errors.Is(err, ErrMalformedInput), errors.Is(err, ErrConflict),
		errors.Is(err, ErrStoreFailure), errors.Is(err, ErrUnauthenticated):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStoreFailure, err)
	}
}

// notFound builds an ErrNotFound for a named entity
func notFound(entity string, id uint) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}
