package dialogue

import "errors"

var (
	// ErrSessionNotFound means Get ran before any GetOrCreate for the call,
	// which is an ordering bug in the caller, not a caller-visible condition.
	ErrSessionNotFound = errors.New("call session not found")

	// ErrStorageUnavailable wraps persistence failures.
	ErrStorageUnavailable = errors.New("session storage unavailable")

	// ErrGenerationUnavailable wraps generation collaborator failures.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrNotificationFailed tags follow-up delivery failures. It is logged
	// and swallowed, never returned to the telephony layer.
	ErrNotificationFailed = errors.New("notification delivery failed")
)
