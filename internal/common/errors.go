// Package common defines sentinel errors and constants shared by the client
// and server sides of keepsync. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// Local store errors.
	ErrorNotFound    = errors.New("not found")
	ErrStaleRevision = errors.New("stale revision")
	ErrLocalStore    = errors.New("local store error")

	// Remote and network errors.
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrRemoteRejected     = errors.New("remote rejected")
	ErrTransientIO        = errors.New("transient i/o error")

	// Validation errors, shared by the record service and the server.
	ErrValidation = errors.New("validation error")
)
