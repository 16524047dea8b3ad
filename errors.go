package mailcheck

import (
	"errors"
	"fmt"
)

var (
	ErrConfig      = errors.New("mailcheck: invalid configuration")
	ErrTestTimeout = errors.New("test timeout")
	ErrPanic       = errors.New("internal error")
	ErrFormat      = errors.New("mailcheck: unknown output format")
)

// UnknownTestTypeError is returned for a test type selector that is not one
// of the known test types.
type UnknownTestTypeError struct {
	// Type is the selector, lowercased.
	Type string
}

func (e *UnknownTestTypeError) Error() string {
	return fmt.Sprintf("Unknown test type: %s", e.Type)
}
