package index

import "errors"

// Error kinds per spec.md §7. Sentinel values so callers can use
// errors.Is against a returned *Error.
var (
	ErrUnauthorized     = errors.New("index: unauthorized")
	ErrInvalidArgument  = errors.New("index: invalid argument")
	ErrStateConflict    = errors.New("index: state conflict")
	ErrInternal         = errors.New("index: internal invariant violation")
)
