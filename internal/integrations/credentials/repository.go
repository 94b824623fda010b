// Package credentials stores per-tenant provider secrets encrypted at rest.
package credentials

import (
	"context"
	"errors"
	"time"

	"prospecting_backend/internal/integrations/external"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCredentialNotFound = errors.New("integration credential not found")

// Record is a stored credential row. EncryptedSecret never leaves this package's callers.
type Record struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Service         external.ServiceName
	EncryptedSecret string `json:"-"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Repository provides data access for integration credentials.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new credentials repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert stores the encrypted secret, replacing any previous one for the same service.
func (r *Repository) Upsert(ctx context.Context, orgID uuid.UUID, service external.ServiceName, encrypted string) (Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `
		INSERT INTO integration_credentials (id, organization_id, service, encrypted_secret)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, service)
		DO UPDATE SET encrypted_secret = EXCLUDED.encrypted_secret, updated_at = now()
		RETURNING id, organization_id, service, encrypted_secret, created_at, updated_at
	`, uuid.New(), orgID, service, encrypted).Scan(
		&rec.ID, &rec.OrganizationID, &rec.Service, &rec.EncryptedSecret, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// Get returns the credential row for a service.
func (r *Repository) Get(ctx context.Context, orgID uuid.UUID, service external.ServiceName) (Record, error) {
	var rec Record
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, service, encrypted_secret, created_at, updated_at
		FROM integration_credentials
		WHERE organization_id = $1 AND service = $2
	`, orgID, service).Scan(
		&rec.ID, &rec.OrganizationID, &rec.Service, &rec.EncryptedSecret, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrCredentialNotFound
	}
	return rec, err
}

// Delete removes a credential and reports whether one existed.
func (r *Repository) Delete(ctx context.Context, orgID uuid.UUID, service external.ServiceName) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM integration_credentials WHERE organization_id = $1 AND service = $2
	`, orgID, service)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns every credential row of an organization without decrypting anything.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, service, encrypted_secret, created_at, updated_at
		FROM integration_credentials
		WHERE organization_id = $1
		ORDER BY service
	`, orgID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		err := row.Scan(&rec.ID, &rec.OrganizationID, &rec.Service, &rec.EncryptedSecret, &rec.CreatedAt, &rec.UpdatedAt)
		return rec, err
	})
}
