package repository

import (
	"context"
	"time"

	"prospecting_backend/internal/lookups/domain"

	"github.com/google/uuid"
)

// Repository persists lookups and their transition history.
// Every mutation is a conditional update on a pending status, so terminal rows are never rewritten.
type Repository interface {
	Create(ctx context.Context, l domain.LookupRequest) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (domain.LookupRequest, error)
	Transitions(ctx context.Context, tenantID, id uuid.UUID) ([]domain.Transition, error)

	// ResolveCallback applies a callback outcome to the lookup matching (tenant, external id, subject).
	// It returns the recorded transitions, which are empty when the lookup was already terminal.
	ResolveCallback(ctx context.Context, tenantID uuid.UUID, externalID, subject string, res domain.Resolution, now time.Time) (domain.LookupRequest, []domain.Transition, error)

	// ExpireBefore expires at most limit pending lookups with updated_at < deadline.
	ExpireBefore(ctx context.Context, deadline time.Time, limit int, now time.Time) ([]domain.Expired, error)

	// ExpireOne expires a single lookup when it is still pending and updated_at < cutoff.
	ExpireOne(ctx context.Context, id uuid.UUID, cutoff, now time.Time) (domain.Expired, bool, error)
}
