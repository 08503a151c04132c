package oir

import (
	"errors"
	"fmt"

	"github.com/meridian-air/oirindex/authz"
	"github.com/meridian-air/oirindex/index"
)

// Kind classifies a System error, per spec.md §7.
type Kind int

const (
	Unauthorized Kind = iota
	InvalidArgument
	StateConflict
	Internal
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case InvalidArgument:
		return "InvalidArgument"
	case StateConflict:
		return "StateConflict"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with the Kind spec.md §7 assigns it.
// Two *Error values are Is-equal (via errors.Is) iff their Kind matches,
// so callers can write errors.Is(err, oir.ErrUnauthorized) regardless of
// which operation produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("oir: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("oir: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel Kind values for errors.Is comparisons.
var (
	ErrUnauthorized    = &Error{Kind: Unauthorized}
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
	ErrStateConflict   = &Error{Kind: StateConflict}
	ErrInternal        = &Error{Kind: Internal}
)

// wrapErr classifies an error from index/authz/rasterize into the Kind
// spec.md §7 assigns it, preserving the original error as the cause.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var oirErr *Error
	if errors.As(err, &oirErr) {
		return err
	}
	kind := Internal
	switch {
	case errors.Is(err, index.ErrUnauthorized), errors.Is(err, authz.ErrUnauthorized):
		kind = Unauthorized
	case errors.Is(err, index.ErrInvalidArgument):
		kind = InvalidArgument
	case errors.Is(err, index.ErrStateConflict), errors.Is(err, authz.ErrStateConflict):
		kind = StateConflict
	case errors.Is(err, index.ErrInternal):
		kind = Internal
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
