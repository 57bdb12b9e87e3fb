package core

import "github.com/pkg/errors"

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError wraps invalid-input failures so API error handlers can
// render them as a field -> message map instead of a 500.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals that the server can no longer serve requests and should
// be stopped gracefully. The manager's HTTP error handler traps it and
// fires the server's shutdown sequence.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks if err (or its cause) was created with NewShutdownError.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
