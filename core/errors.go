package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a well-formed request violating a business rule.
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

// PermissionError indicates an authenticated caller that is not authorized
// for the entity or action at hand. Existence checks always run first, so a
// PermissionError never leaks whether an unrelated entity exists.
type PermissionError struct {
	Err error
}

func NewPermissionError(msg string) error {
	return &PermissionError{errors.New(msg)}
}

func (err PermissionError) Error() string {
	if err.Err == nil {
		return "permission denied"
	}
	return err.Err.Error()
}

func IsPermissionError(err error) bool {
	_, ok := errors.Cause(err).(*PermissionError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
