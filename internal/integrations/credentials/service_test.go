package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prospecting_backend/internal/events"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/platform/apperr"
	"prospecting_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	org     uuid.UUID
	service external.ServiceName
}

type memoryStore struct {
	mu      sync.Mutex
	records map[key]Record
	failGet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[key]Record)}
}

func (m *memoryStore) Upsert(_ context.Context, orgID uuid.UUID, service external.ServiceName, encrypted string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := Record{ID: uuid.New(), OrganizationID: orgID, Service: service, EncryptedSecret: encrypted, UpdatedAt: time.Now()}
	m.records[key{orgID, service}] = rec
	return rec, nil
}

func (m *memoryStore) Get(_ context.Context, orgID uuid.UUID, service external.ServiceName) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return Record{}, m.failGet
	}
	rec, ok := m.records[key{orgID, service}]
	if !ok {
		return Record{}, ErrCredentialNotFound
	}
	return rec, nil
}

func (m *memoryStore) Delete(_ context.Context, orgID uuid.UUID, service external.ServiceName) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key{orgID, service}]
	delete(m.records, key{orgID, service})
	return ok, nil
}

func (m *memoryStore) List(_ context.Context, orgID uuid.UUID) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for k, rec := range m.records {
		if k.org == orgID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}
func (b *captureBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func newTestService(t *testing.T) (*Service, *memoryStore, *captureBus) {
	t.Helper()
	store := newMemoryStore()
	bus := &captureBus{}
	return NewService(store, newTestCipher(t), bus, logger.Discard()), store, bus
}

func TestSaveThenDecrypt(t *testing.T) {
	svc, store, bus := newTestService(t)
	tenant := uuid.New()

	status, err := svc.Save(context.Background(), tenant, external.ServiceApollo, "apollo-key")
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.NotEqual(t, "apollo-key", store.records[key{tenant, external.ServiceApollo}].EncryptedSecret)

	secret, err := svc.GetDecryptedCredential(context.Background(), tenant, external.ServiceApollo)
	require.NoError(t, err)
	assert.Equal(t, "apollo-key", secret)

	require.Len(t, bus.events, 1)
	changed := bus.events[0].(events.IntegrationCredentialChanged)
	assert.Equal(t, "apollo", changed.Service)
	assert.False(t, changed.Removed)
}

func TestMissingCredentialIsNotConfigured(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetDecryptedCredential(context.Background(), uuid.New(), external.ServiceSignalHire)

	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, external.CategoryNotConfigured, external.Classify(external.ServiceSignalHire, err).Category)
}

func TestStoreFailureIsNotMistakenForMissing(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failGet = errors.New("connection refused")

	_, err := svc.GetDecryptedCredential(context.Background(), uuid.New(), external.ServiceApollo)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConfigured)
}

func TestTamperedCredentialIsInvalid(t *testing.T) {
	svc, store, _ := newTestService(t)
	tenant := uuid.New()
	_, err := svc.Save(context.Background(), tenant, external.ServiceApollo, "apollo-key")
	require.NoError(t, err)

	rec := store.records[key{tenant, external.ServiceApollo}]
	tail := "00"
	if rec.EncryptedSecret[len(rec.EncryptedSecret)-2:] == tail {
		tail = "ff"
	}
	rec.EncryptedSecret = rec.EncryptedSecret[:len(rec.EncryptedSecret)-2] + tail
	store.records[key{tenant, external.ServiceApollo}] = rec

	_, err = svc.GetDecryptedCredential(context.Background(), tenant, external.ServiceApollo)
	require.ErrorIs(t, err, external.ErrInvalidCredential)
	assert.Equal(t, external.CategoryAuth, external.Classify(external.ServiceApollo, err).Category)
}

func TestSaveValidatesShape(t *testing.T) {
	svc, _, _ := newTestService(t)
	tenant := uuid.New()

	_, err := svc.Save(context.Background(), tenant, external.ServiceZAPI, `{"instanceId":"i"}`)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Save(context.Background(), tenant, external.ServiceZAPI, `{"instanceId":"i","token":"t","clientToken":"c"}`)
	assert.NoError(t, err)

	_, err = svc.Save(context.Background(), tenant, external.ServiceName("hubspot"), "x")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Save(context.Background(), tenant, external.ServiceApollo, "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteAndStatuses(t *testing.T) {
	svc, _, bus := newTestService(t)
	tenant := uuid.New()
	_, err := svc.Save(context.Background(), tenant, external.ServiceInstantly, "inst-key")
	require.NoError(t, err)

	statuses, err := svc.Statuses(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, statuses, len(external.AllServices()))
	for _, st := range statuses {
		assert.Equal(t, st.Service == external.ServiceInstantly, st.Configured, st.Service)
	}

	configured, err := svc.ConfiguredServices(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, []external.ServiceName{external.ServiceInstantly}, configured)

	require.NoError(t, svc.Delete(context.Background(), tenant, external.ServiceInstantly))
	assert.True(t, apperr.Is(svc.Delete(context.Background(), tenant, external.ServiceInstantly), apperr.KindNotFound))
	assert.True(t, bus.events[len(bus.events)-1].(events.IntegrationCredentialChanged).Removed)
}

func TestParseShapes(t *testing.T) {
	cred, err := ParseSnovio(`{"clientId":"id","clientSecret":"secret"}`)
	require.NoError(t, err)
	assert.Equal(t, "id", cred.ClientID)

	_, err = ParseSnovio(`not json`)
	assert.ErrorIs(t, err, external.ErrInvalidCredential)

	_, err = ParseZAPI(`{"instanceId":"i","token":"t","clientToken":"c","extra":1}`)
	assert.ErrorIs(t, err, external.ErrInvalidCredential)
}
