package agroSession

import "errors"

var (
	// ErrSessionExpired is an exported constant or variable used by the session coordinator.
	ErrSessionExpired = errors.New("session expired")
	// ErrRenewalFailed is an exported constant or variable used by the session coordinator.
	ErrRenewalFailed = errors.New("credential renewal failed")
	// ErrRateLimited is an exported constant or variable used by the session coordinator.
	ErrRateLimited = errors.New("rate limited")
	// ErrNetwork is an exported constant or variable used by the session coordinator.
	ErrNetwork = errors.New("network unreachable")
	// ErrChallengeNotFound is an exported constant or variable used by the session coordinator.
	ErrChallengeNotFound = errors.New("mfa challenge not found")
	// ErrChallengeExpired is an exported constant or variable used by the session coordinator.
	ErrChallengeExpired = errors.New("mfa challenge expired")
	// ErrChallengeLocked is an exported constant or variable used by the session coordinator.
	ErrChallengeLocked = errors.New("mfa challenge locked out")
	// ErrChallengeCanceled is an exported constant or variable used by the session coordinator.
	ErrChallengeCanceled = errors.New("mfa challenge canceled")
	// ErrSubmitInFlight is an exported constant or variable used by the session coordinator.
	ErrSubmitInFlight = errors.New("verification already in flight")
	// ErrCodeIncomplete is an exported constant or variable used by the session coordinator.
	ErrCodeIncomplete = errors.New("code input incomplete")
	// ErrVerifyRejected is an exported constant or variable used by the session coordinator.
	ErrVerifyRejected = errors.New("verification rejected")
	// ErrSetupNotFound is an exported constant or variable used by the session coordinator.
	ErrSetupNotFound = errors.New("mfa setup session not found")
	// ErrSetupExpired is an exported constant or variable used by the session coordinator.
	ErrSetupExpired = errors.New("mfa setup session expired")
	// ErrNotAuthenticated is an exported constant or variable used by the session coordinator.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable is an exported constant or variable used by the session coordinator.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrCoordinatorNotReady is an exported constant or variable used by the session coordinator.
	ErrCoordinatorNotReady = errors.New("coordinator not initialized")
)

// APIError is a non-2xx backend response surfaced to the caller with a safe
// human-readable message. 5xx bodies are never quoted; their Message is fixed
// generic wording.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}
