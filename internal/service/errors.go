package service

import (
	"errors"
	"fmt"

	"innkeep/internal/models"
)

// ErrNotOwner rejects writes to a resource the caller neither owns nor
// administers. The API layer maps it to a 403.
var ErrNotOwner = errors.New("not the resource owner")

// ValidationError marks caller-correctable input problems. The API layer
// maps it to a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports a status change not permitted from the
// booking's current state. The booking itself is left untouched, so callers
// may treat it as a non-fatal no-op.
type InvalidTransitionError struct {
	BookingID int64
	From      models.BookingStatus
	To        models.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %d: cannot transition from %s to %s", e.BookingID, e.From, e.To)
}
