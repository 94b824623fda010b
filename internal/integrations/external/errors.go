package external

import "errors"

var (
	// ErrAttemptTimeout is returned when one attempt outlives the executor timeout.
	ErrAttemptTimeout = errors.New("attempt exceeded timeout")
	// ErrOperationPanicked wraps a panic recovered from an operation.
	ErrOperationPanicked = errors.New("operation panicked")
	// ErrNotConfigured means the tenant has no credential for the service.
	ErrNotConfigured = errors.New("credential not configured")
	// ErrInvalidCredential means a stored credential cannot be used as-is.
	ErrInvalidCredential = errors.New("credential is invalid")
	// ErrInvalidInput rejects a call before it reaches the provider.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLookupExpired marks a lookup that timed out waiting for its callback.
	ErrLookupExpired = errors.New("lookup expired")
	// ErrUnexpectedResponse means the provider answered 2xx with a body we cannot use.
	ErrUnexpectedResponse = errors.New("unexpected provider response")
)
