package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can react without string matching
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindStoreUnavailable  ErrorKind = "store_unavailable"
	KindInternal          ErrorKind = "internal"
)

// Error is a classified service error. The kind survives fmt.Errorf("%w") wrapping.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a classified error, optionally wrapping a cause
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// MessageOf returns the message of the outermost classified error, or a generic message
// for unclassified errors so internal details are not leaked.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
