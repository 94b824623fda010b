package external

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"

	"golang.org/x/text/language"
)

// Classifier turns raw errors into ServiceErrors with messages in a fixed locale.
type Classifier struct {
	catalog *Catalog
	locale  language.Tag
}

// NewClassifier renders messages from catalog in locale, falling back to the catalog default.
func NewClassifier(catalog *Catalog, locale string) *Classifier {
	return &Classifier{catalog: catalog, locale: catalog.Match(locale)}
}

// DefaultClassifier uses the embedded catalog and the default locale.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultCatalog(), DefaultLocale)
}

// Catalog exposes the message catalog for callers that re-render in another locale.
func (c *Classifier) Catalog() *Catalog { return c.catalog }

// Classify maps err to a ServiceError. It is pure: the same error always yields the same result.
// A *ServiceError anywhere in the chain is returned unchanged.
func (c *Classifier) Classify(service ServiceName, err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	category, status := Categorize(err)
	return newServiceError(c.catalog, c.locale, service, category, status, err)
}

// New builds a ServiceError for a known category.
func (c *Classifier) New(service ServiceName, category Category, cause error) *ServiceError {
	return newServiceError(c.catalog, c.locale, service, category, 0, cause)
}

// Classify uses the default classifier.
func Classify(service ServiceName, err error) *ServiceError {
	return DefaultClassifier().Classify(service, err)
}

// Categorize returns the category for err and the provider HTTP status when one is known.
func Categorize(err error) (Category, int) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return CategoryForStatus(httpErr.StatusCode), httpErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotConfigured):
		return CategoryNotConfigured, 0
	case errors.Is(err, ErrLookupExpired):
		return CategoryExpired, 0
	case errors.Is(err, ErrInvalidCredential):
		return CategoryAuth, 0
	case errors.Is(err, ErrInvalidInput):
		return CategoryValidation, 0
	case errors.Is(err, ErrAttemptTimeout), errors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout, 0
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout, 0
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return CategoryNetwork, 0
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryNetwork, 0
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryNetwork, 0
	}

	return CategoryUnknown, 0
}

// CategoryForStatus maps a provider HTTP status to a category.
func CategoryForStatus(status int) Category {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return CategoryValidation
	case status == http.StatusRequestTimeout:
		return CategoryTimeout
	case status == http.StatusTooManyRequests:
		return CategoryRateLimit
	case status >= 500:
		return CategoryServer
	default:
		return CategoryUnknown
	}
}
