// Package errs defines the error taxonomy shared across the retrieval
// pipeline: BadInput, Upstream, Validation, Integrity, Internal.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on it
// (HTTP status mapping, retry decisions, warning surfacing).
type Kind string

const (
	KindBadInput   Kind = "bad_input"
	KindUpstream   Kind = "upstream"
	KindValidation Kind = "validation"
	KindIntegrity  Kind = "integrity"
	KindInternal   Kind = "internal"
)

// Error wraps an underlying error with a Kind and the operation name
// that produced it, following the %w-wrapping idiom used throughout
// the repository layer.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for op wrapping err with the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
