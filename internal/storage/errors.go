package storage

import (
	"errors"
	"fmt"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("object already exists at this key")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError records the operation and key of a failed storage call.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error chain contains ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTooLarge returns true if the error chain contains ErrTooLarge.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

// ToDomain converts a storage failure into a domain error for op.
func ToDomain(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return domain.Wrap(err, domain.ENOTFOUND, op, "Stored file not found.")
	case errors.Is(err, ErrInvalidKey):
		return domain.Wrap(err, domain.EINVALID, op, "Invalid file reference.")
	case errors.Is(err, ErrTooLarge):
		return domain.Wrap(err, domain.ETOOLARGE, op, "File is too large.")
	case errors.Is(err, ErrKeyExists):
		return domain.Wrap(err, domain.ECONFLICT, op, "File already exists.")
	}
	return domain.Internal(err, op, "file storage failed")
}
