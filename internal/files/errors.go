package files

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks missing or invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFilename is returned when a name sanitizes to nothing.
	ErrInvalidFilename = fmt.Errorf("%w: invalid filename", ErrValidation)
	// ErrConflict is returned when a blob with the sanitized name already exists.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned for a missing user, file or target. Record
	// stores return it for absent rows.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyDeleted is returned when deleting a soft-deleted file.
	ErrAlreadyDeleted = errors.New("already deleted")
	// ErrStoreFailure wraps unexpected blob or record store errors.
	ErrStoreFailure = errors.New("store failure")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
