// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service layers.
var (
	// ErrImageNotFound indicates the referenced local image file does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrNoResult indicates the classifier answered but produced no usable
	// nutrition result (malformed or empty response body).
	ErrNoResult = errors.New("no result")

	// ErrNoSession indicates no valid signed-in session is available.
	ErrNoSession = errors.New("no session")

	// ErrNotFound indicates the requested record does not exist for the
	// current user.
	ErrNotFound = errors.New("not found")
)
