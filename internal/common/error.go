// Package common defines shared constants and sentinel errors used across
// the store, service, and CLI layers of Passkeeper. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateID    = errors.New("duplicate credential id")
	ErrReplayDetected = errors.New("replay detected: counter did not advance")

	// Storage backend unreachable or failing. Callers may retry with backoff;
	// ErrReplayDetected must never be retried.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors.
	ErrorInvalidCredential = errors.New("invalid credential")
)
