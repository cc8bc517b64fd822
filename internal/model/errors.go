package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrNotOwner          = errors.New("caller does not own this journal")
	ErrNotEditable       = errors.New("journal is not editable")
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// ValidateJournalInput enforces the pre-write checks shared by create and
// update: both title and content must be non-empty before any tier is touched.
func ValidateJournalInput(title, content string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	return nil
}
