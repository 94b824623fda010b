package external

import "net/http"

// Category is the uniform classification of a failed provider call.
type Category string

const (
	CategoryTimeout    Category = "timeout"
	CategoryNetwork    Category = "network"
	CategoryRateLimit  Category = "rate-limit"
	CategoryAuth       Category = "auth"
	CategoryNotFound   Category = "not-found"
	CategoryValidation Category = "validation"
	CategoryServer     Category = "server"
	CategoryUnknown    Category = "unknown"

	// Lookup flow categories. Neither is produced by HTTP classification.
	CategoryNotConfigured Category = "not-configured"
	CategoryExpired       Category = "expired"
)

// AllCategories lists every category; the message catalog must cover each one.
func AllCategories() []Category {
	return []Category{
		CategoryTimeout, CategoryNetwork, CategoryRateLimit, CategoryAuth, CategoryNotFound,
		CategoryValidation, CategoryServer, CategoryUnknown, CategoryNotConfigured, CategoryExpired,
	}
}

// Retryable reports whether Execute retries the category automatically.
func (c Category) Retryable() bool {
	return c == CategoryTimeout || c == CategoryNetwork
}

// ManualRetry reports whether a user-initiated retry can reasonably succeed.
// Rate limits and server errors are not retried automatically but are worth retrying later.
func (c Category) ManualRetry() bool {
	switch c {
	case CategoryTimeout, CategoryNetwork, CategoryRateLimit, CategoryServer, CategoryExpired:
		return true
	default:
		return false
	}
}

// HTTPStatus is the status this API answers with when a provider call fails.
// Provider auth failures map to 424 so clients never confuse them with their own session expiring.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	case CategoryNetwork, CategoryServer:
		return http.StatusBadGateway
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	case CategoryAuth:
		return http.StatusFailedDependency
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryNotConfigured:
		return http.StatusPreconditionFailed
	case CategoryExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
