package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets a notification that does
// not exist or is not owned by the requesting user. The two cases are
// deliberately indistinguishable so ownership checks never leak existence of
// another user's rows.
var ErrNotFound = errors.New("notification not found")

// ValidationError reports a missing or empty required field at creation time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
