package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParty       = errors.New("invalid party")
	ErrEmptyContent       = errors.New("empty content")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr tags unexpected storage-layer failures so callers can map them
// without masking the underlying cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}
