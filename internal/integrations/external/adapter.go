package external

import (
	"context"

	"github.com/google/uuid"
)

// CredentialSource returns a tenant's decrypted secret for a service.
// It returns an error wrapping ErrNotConfigured when none is stored.
type CredentialSource interface {
	GetDecryptedCredential(ctx context.Context, tenantID uuid.UUID, service ServiceName) (string, error)
}

// Adapter is the capability every provider integration shares.
type Adapter interface {
	Name() ServiceName
	TestConnection(ctx context.Context, tenantID uuid.UUID) ConnectionResult
}

// ConnectionResult is the outcome of a connection test as shown to users.
type ConnectionResult struct {
	Service   ServiceName `json:"service"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Category  Category    `json:"category,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// Connection converts any Result into a ConnectionResult.
func Connection[T any](e *Executor, service ServiceName, r Result[T]) ConnectionResult {
	if r.OK() {
		return ConnectionResult{
			Service: service,
			Success: true,
			Message: e.Catalog().Render(MessageConnected, e.classifier.locale, service),
		}
	}
	return ConnectionResult{
		Service:   service,
		Success:   false,
		Message:   r.Err.UserMessage,
		Category:  r.Err.Category,
		Retryable: r.Err.CanRetryManually(),
	}
}

// Localize re-renders the message for an Accept-Language value.
func (r ConnectionResult) Localize(catalog *Catalog, acceptLanguage string) ConnectionResult {
	key := MessageConnected
	if !r.Success {
		key = string(r.Category)
	}
	r.Message = catalog.Message(key, acceptLanguage, r.Service)
	return r
}

// Call fetches the tenant credential and runs fn through Execute.
// Credential failures return without touching the network.
func Call[T any](ctx context.Context, e *Executor, creds CredentialSource, tenantID uuid.UUID, service ServiceName, op string, fn func(ctx context.Context, secret string) (T, error)) Result[T] {
	secret, err := creds.GetDecryptedCredential(ctx, tenantID, service)
	if err != nil {
		return Fail[T](e, service, op, err)
	}
	return Execute(ctx, e, service, op, func(ctx context.Context) (T, error) {
		return fn(ctx, secret)
	})
}
