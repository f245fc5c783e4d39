package models

import "fmt"

// ValidationError marks input that fails structural checks; the HTTP layer
// maps it to 400 instead of treating it as an internal failure.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Invalidf builds a ValidationError the way fmt.Errorf builds errors.
func Invalidf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
