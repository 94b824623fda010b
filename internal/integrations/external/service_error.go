package external

import (
	"fmt"

	"golang.org/x/text/language"
)

// ServiceError is the classified outcome of a failed provider call.
// Retryable is derived from Category and never set independently.
type ServiceError struct {
	Category Category
	Service  ServiceName
	// StatusCode is the provider's HTTP status, zero when no response arrived.
	StatusCode  int
	UserMessage string
	Retryable   bool

	cause   error
	catalog *Catalog
}

func newServiceError(catalog *Catalog, locale language.Tag, service ServiceName, category Category, status int, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Service:     service,
		StatusCode:  status,
		UserMessage: catalog.Render(string(category), locale, service),
		Retryable:   category.Retryable(),
		cause:       cause,
		catalog:     catalog,
	}
}

func (e *ServiceError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Category)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Category, e.cause)
}

func (e *ServiceError) Unwrap() error { return e.cause }

// HTTPStatus is the status this API responds with.
func (e *ServiceError) HTTPStatus() int { return e.Category.HTTPStatus() }

// CanRetryManually reports whether offering the user a retry makes sense.
func (e *ServiceError) CanRetryManually() bool { return e.Category.ManualRetry() }

// PublicMessage returns the message rendered in the default locale.
func (e *ServiceError) PublicMessage() string { return e.UserMessage }

// LocalizedMessage renders the message for an Accept-Language value.
func (e *ServiceError) LocalizedMessage(acceptLanguage string) string {
	if e.catalog == nil {
		return e.UserMessage
	}
	return e.catalog.Message(string(e.Category), acceptLanguage, e.Service)
}

// ResponseDetails is the structured part of the API error body.
func (e *ServiceError) ResponseDetails() any {
	details := map[string]any{
		"category":  e.Category,
		"service":   e.Service,
		"retryable": e.Retryable,
		"canRetry":  e.CanRetryManually(),
	}
	if e.StatusCode != 0 {
		details["httpStatus"] = e.StatusCode
	}
	return details
}
