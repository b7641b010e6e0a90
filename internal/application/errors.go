package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")

// Unit-of-work errors.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrCancelled           = errors.New("operation cancelled")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrScopeMisuse         = errors.New("scope misuse")
	ErrNoSession           = errors.New("no session bound to context")
)
