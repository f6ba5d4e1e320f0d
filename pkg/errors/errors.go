package errors

import (
	"errors"
	"fmt"
)

// Type classifies scraper errors for retry and exit-code decisions.
type Type string

const (
	// TypeLaunch means the browser binary could not be started. Fatal,
	// never retried, aborts the whole run.
	TypeLaunch Type = "launch"
	// TypeNavigation means the search results panel did not appear in
	// time. Transient until the retry budget runs out.
	TypeNavigation Type = "navigation"
	// TypeExtraction means a listing's detail view could not be opened
	// or its required fields could not be read. Transient per listing.
	TypeExtraction Type = "extraction"
	// TypeParse marks malformed field text. Never surfaced as an error
	// by the extractor; the type exists for lower-level helpers.
	TypeParse Type = "parse"
	// TypeUnknown is everything else.
	TypeUnknown Type = "unknown"
)

// Error carries the classification alongside the failing operation.
type Error struct {
	Type    Type
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s error: %s: %v", e.Op, e.Type, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Type, e.Err)
	default:
		return fmt.Sprintf("%s: %s error: %s", e.Op, e.Type, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(t Type, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(t Type, op string, err error) *Error {
	return &Error{Type: t, Op: op, Err: err}
}

// Wrapf classifies an underlying error with an additional message.
func Wrapf(t Type, op string, err error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsTransient reports whether errors of the given type are expected to
// resolve on retry (timeouts, detached nodes, panels still rendering).
func IsTransient(t Type) bool {
	switch t {
	case TypeNavigation, TypeExtraction:
		return true
	case TypeLaunch, TypeParse:
		return false
	default:
		return false
	}
}

// TypeOf extracts the classification from an error chain, returning
// TypeUnknown for unclassified errors.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeUnknown
}

// IsType reports whether any error in the chain carries the given type.
func IsType(err error, t Type) bool {
	return TypeOf(err) == t
}
