package types

import "errors"

var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrUpstream        = errors.New("upstream service error")
	// ErrNonJSONPayload is returned when an upstream answers with HTML or XML
	// (error pages, quota notices) instead of JSON.
	ErrNonJSONPayload = errors.New("upstream returned a non-JSON payload")
)
