// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrNotFound marks an unknown listing session.
	ErrNotFound = errors.New("not found")
	// ErrIndexUnavailable wraps every failure to load the page index.
	ErrIndexUnavailable = errors.New("index unavailable")
)
