package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prospecting_backend/internal/events"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/platform/apperr"
	"prospecting_backend/platform/logger"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned by GetDecryptedCredential when the tenant has no secret for a service.
var ErrNotConfigured = external.ErrNotConfigured

// Store is the persistence port; *Repository implements it.
type Store interface {
	Upsert(ctx context.Context, orgID uuid.UUID, service external.ServiceName, encrypted string) (Record, error)
	Get(ctx context.Context, orgID uuid.UUID, service external.ServiceName) (Record, error)
	Delete(ctx context.Context, orgID uuid.UUID, service external.ServiceName) (bool, error)
	List(ctx context.Context, orgID uuid.UUID) ([]Record, error)
}

// Status is what the API reveals about a credential: never the secret.
type Status struct {
	Service     external.ServiceName `json:"service"`
	DisplayName string               `json:"displayName"`
	Configured  bool                 `json:"configured"`
	UpdatedAt   *time.Time           `json:"updatedAt,omitempty"`
}

// Service manages encrypted provider credentials per tenant.
type Service struct {
	store  Store
	cipher *Cipher
	bus    events.Bus
	log    *logger.Logger
}

func NewService(store Store, cipher *Cipher, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, cipher: cipher, bus: bus, log: log}
}

// Save validates, encrypts and stores secret for service.
func (s *Service) Save(ctx context.Context, tenantID uuid.UUID, service external.ServiceName, secret string) (Status, error) {
	if !service.Valid() {
		return Status{}, apperr.Validation("unknown service")
	}
	if err := ValidateSecret(service, secret); err != nil {
		return Status{}, apperr.Wrap(apperr.KindValidation, "credential has the wrong format for "+service.DisplayName(), err)
	}

	encrypted, err := s.cipher.Encrypt(tenantID, service, secret)
	if err != nil {
		return Status{}, apperr.Wrap(apperr.KindInternal, "failed to encrypt credential", err)
	}

	rec, err := s.store.Upsert(ctx, tenantID, service, encrypted)
	if err != nil {
		s.log.DatabaseError("credentials.Upsert", err)
		return Status{}, apperr.Unavailable("failed to save credential", err)
	}

	s.publish(ctx, tenantID, service, false)
	return statusFrom(service, &rec), nil
}

// Delete removes the credential for service.
func (s *Service) Delete(ctx context.Context, tenantID uuid.UUID, service external.ServiceName) error {
	if !service.Valid() {
		return apperr.Validation("unknown service")
	}
	found, err := s.store.Delete(ctx, tenantID, service)
	if err != nil {
		s.log.DatabaseError("credentials.Delete", err)
		return apperr.Unavailable("failed to delete credential", err)
	}
	if !found {
		return apperr.NotFound("credential not found")
	}

	s.publish(ctx, tenantID, service, true)
	return nil
}

// Statuses reports every supported service with whether the tenant configured it.
func (s *Service) Statuses(ctx context.Context, tenantID uuid.UUID) ([]Status, error) {
	records, err := s.store.List(ctx, tenantID)
	if err != nil {
		s.log.DatabaseError("credentials.List", err)
		return nil, apperr.Unavailable("failed to list credentials", err)
	}

	byService := make(map[external.ServiceName]*Record, len(records))
	for i := range records {
		byService[records[i].Service] = &records[i]
	}

	out := make([]Status, 0, len(external.AllServices()))
	for _, service := range external.AllServices() {
		out = append(out, statusFrom(service, byService[service]))
	}
	return out, nil
}

// ConfiguredServices lists the services the tenant has a credential for.
func (s *Service) ConfiguredServices(ctx context.Context, tenantID uuid.UUID) ([]external.ServiceName, error) {
	statuses, err := s.Statuses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var out []external.ServiceName
	for _, st := range statuses {
		if st.Configured {
			out = append(out, st.Service)
		}
	}
	return out, nil
}

// GetDecryptedCredential returns the plaintext secret. Callers must not log or persist it.
func (s *Service) GetDecryptedCredential(ctx context.Context, tenantID uuid.UUID, service external.ServiceName) (string, error) {
	rec, err := s.store.Get(ctx, tenantID, service)
	if errors.Is(err, ErrCredentialNotFound) {
		return "", fmt.Errorf("%s: %w", service, ErrNotConfigured)
	}
	if err != nil {
		return "", fmt.Errorf("load %s credential: %w", service, err)
	}

	secret, err := s.cipher.Decrypt(tenantID, service, rec.EncryptedSecret)
	if err != nil {
		s.log.WithContext(ctx).Error("credential decryption failed", "service", service, "error", err)
		return "", fmt.Errorf("%w: %s credential cannot be decrypted", external.ErrInvalidCredential, service)
	}
	return secret, nil
}

func (s *Service) publish(ctx context.Context, tenantID uuid.UUID, service external.ServiceName, removed bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.IntegrationCredentialChanged{
		BaseEvent: events.NewBaseEvent(),
		TenantID:  tenantID,
		Service:   string(service),
		Removed:   removed,
	})
}

func statusFrom(service external.ServiceName, rec *Record) Status {
	st := Status{Service: service, DisplayName: service.DisplayName()}
	if rec != nil {
		st.Configured = true
		updated := rec.UpdatedAt
		st.UpdatedAt = &updated
	}
	return st
}

var _ external.CredentialSource = (*Service)(nil)
