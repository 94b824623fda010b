package repository

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"prospecting_backend/internal/lookups/domain"
	"prospecting_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_DATABASE_URL and applies the embedded migrations.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" || testing.Short() {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.RunMigrations(ctx, pool)
	require.NoError(t, err)
	return pool
}

func pendingLookup(created time.Time) domain.LookupRequest {
	return domain.LookupRequest{
		ID:                uuid.New(),
		TenantID:          uuid.New(),
		Service:           "signalhire",
		SubjectIdentifier: "ana@acme.com",
		ExternalRequestID: uuid.NewString(),
		Status:            domain.StatusInitiated,
		CreatedAt:         created,
		UpdatedAt:         created,
	}
}

func TestPostgresCallbackIsAppliedOnce(t *testing.T) {
	repo := New(testPool(t))
	ctx := context.Background()
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	l := pendingLookup(created)
	require.NoError(t, repo.Create(ctx, l))

	payload := json.RawMessage(`{"fullName":"Ana Souza"}`)
	resolvedAt := created.Add(time.Minute)
	got, recorded, err := repo.ResolveCallback(ctx, l.TenantID, l.ExternalRequestID, l.SubjectIdentifier, domain.Completed(payload), resolvedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.Len(t, recorded, 2)
	assert.Equal(t, domain.StatusCallbackReceived, recorded[0].To)
	assert.Equal(t, domain.StatusCompleted, recorded[1].To)

	again, recorded, err := repo.ResolveCallback(ctx, l.TenantID, l.ExternalRequestID, l.SubjectIdentifier,
		domain.Completed(json.RawMessage(`{"fullName":"Someone Else"}`)), resolvedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, recorded)
	assert.Equal(t, domain.StatusCompleted, again.Status)
	assert.JSONEq(t, string(payload), string(again.ResultPayload))
	assert.True(t, again.UpdatedAt.Equal(resolvedAt))

	history, err := repo.Transitions(ctx, l.TenantID, l.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, _, err = repo.ResolveCallback(ctx, uuid.New(), l.ExternalRequestID, l.SubjectIdentifier, domain.Completed(payload), resolvedAt)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresExpirySkipsTerminalRows(t *testing.T) {
	repo := New(testPool(t))
	ctx := context.Background()
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	done := pendingLookup(created)
	require.NoError(t, repo.Create(ctx, done))
	_, _, err := repo.ResolveCallback(ctx, done.TenantID, done.ExternalRequestID, done.SubjectIdentifier,
		domain.Completed(json.RawMessage(`{"ok":true}`)), created)
	require.NoError(t, err)

	stale := pendingLookup(created)
	require.NoError(t, repo.Create(ctx, stale))

	now := time.Now().UTC().Truncate(time.Microsecond)
	expired, err := repo.ExpireBefore(ctx, now.Add(-time.Hour), 1000, now)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]domain.Status, len(expired))
	for _, e := range expired {
		ids[e.LookupID] = e.PreviousStatus
	}
	assert.NotContains(t, ids, done.ID)
	assert.Equal(t, domain.StatusInitiated, ids[stale.ID])

	row, err := repo.Get(ctx, done.TenantID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, row.Status)
	assert.True(t, row.UpdatedAt.Equal(created))

	row, err = repo.Get(ctx, stale.TenantID, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, row.Status)

	_, ok, err := repo.ExpireOne(ctx, stale.ID, now, now)
	require.NoError(t, err)
	assert.False(t, ok)
}
