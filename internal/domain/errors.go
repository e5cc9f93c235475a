package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists but belongs to another user.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write collides with an existing row on a
// unique key that the caller did not expect to exist.
var ErrConflict = errors.New("conflict")

// ErrUnauthorized is returned when a request carries no usable identity or
// a shared secret does not match. Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")
