package vault

import (
	"errors"
	"fmt"
)

var (
	ErrEntryAlreadyExists = errors.New("entry already exists")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrDecryptionFailed   = errors.New("decryption failed")
	ErrStorage            = errors.New("vault storage failure")
)

// EntryError reports a failure concerning a single entry
type EntryError struct {
	Label string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Label)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// storageError wraps cause so that it matches both ErrStorage and cause
func storageError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, cause)
}
