// Package shared holds the error kinds every domain package wraps.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Kinds are matched with errors.Is.
var (
	ErrAlreadyExists = errors.New("already exists")

	// Validation kinds
	ErrValidation      = errors.New("validation failed")
	ErrEmptyValue      = errors.New("empty value")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")
)

// DomainError carries the operation that failed and its kind.
type DomainError struct {
	Domain  string // "registration"
	Op      string // "AttachDocument"
	Kind    error
	Message string
	Err     error // cause, may be nil
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the cause first, then the kind.
func (e *DomainError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	return errs
}

// NewDomainError creates a sentinel-style domain error without a cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError attaches domain context to err.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}
