package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrTemporary         = errors.New("temporary failure")
	ErrInvalidTransition = errors.New("invalid view transition")
	ErrInvalidResponse   = errors.New("invalid upstream response")
	ErrUnreadableFile    = errors.New("unreadable file")
)

// ErrEmptyQuery is returned when launch is requested without a company name.
var ErrEmptyQuery = fmt.Errorf("%w: company query is empty", ErrInvalidInput)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
