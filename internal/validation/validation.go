package validation

import (
	"errors"
	"fmt"
)

// Error reports malformed caller input. It is never retried automatically;
// the caller has to correct the named field.
type Error struct {
	Field   string
	Message string
}

func New(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// As extracts a validation error from err's chain.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
