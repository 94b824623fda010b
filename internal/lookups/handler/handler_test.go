package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/signalhire"
	"prospecting_backend/internal/lookups/domain"
	"prospecting_backend/internal/lookups/service"
	"prospecting_backend/internal/lookups/transport"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo keeps the terminal-row guarantees of the Postgres repository.
type memRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.LookupRequest
}

func (m *memRepo) Create(_ context.Context, l domain.LookupRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l
	return nil
}

func (m *memRepo) Get(_ context.Context, tenantID, id uuid.UUID) (domain.LookupRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok || l.TenantID != tenantID {
		return domain.LookupRequest{}, domain.ErrNotFound
	}
	return l, nil
}

func (m *memRepo) Transitions(context.Context, uuid.UUID, uuid.UUID) ([]domain.Transition, error) {
	return nil, nil
}

func (m *memRepo) ResolveCallback(_ context.Context, tenantID uuid.UUID, externalID, subject string, res domain.Resolution, now time.Time) (domain.LookupRequest, []domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, l := range m.rows {
		if l.TenantID != tenantID || l.ExternalRequestID != externalID || l.SubjectIdentifier != subject {
			continue
		}
		if l.Status.Terminal() {
			return l, nil, nil
		}
		recorded := []domain.Transition{{LookupID: id, From: l.Status, To: res.Status, OccurredAt: now}}
		l.Status = res.Status
		l.ResultPayload = res.Payload
		l.UpdatedAt = now
		m.rows[id] = l
		return l, recorded, nil
	}
	return domain.LookupRequest{}, nil, domain.ErrNotFound
}

func (m *memRepo) ExpireBefore(_ context.Context, deadline time.Time, _ int, now time.Time) ([]domain.Expired, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Expired
	for id, l := range m.rows {
		if !l.Status.Terminal() && l.UpdatedAt.Before(deadline) {
			out = append(out, domain.Expired{LookupID: id, TenantID: l.TenantID, PreviousStatus: l.Status})
			l.Status = domain.StatusExpired
			l.UpdatedAt = now
			m.rows[id] = l
		}
	}
	return out, nil
}

func (m *memRepo) ExpireOne(context.Context, uuid.UUID, time.Time, time.Time) (domain.Expired, bool, error) {
	return domain.Expired{}, false, nil
}

type fixedProvider struct{ requestID string }

func (p fixedProvider) RequestLookup(context.Context, uuid.UUID, []string, string) external.Result[signalhire.LookupAccepted] {
	return external.Result[signalhire.LookupAccepted]{Value: signalhire.LookupAccepted{RequestID: p.requestID}, Attempts: 1}
}

type chanArchive struct {
	got    chan string
	mu     sync.Mutex
	bodies map[string][][]byte
}

func (a *chanArchive) ArchiveCallback(_ context.Context, _ uuid.UUID, requestID string, body []byte) error {
	a.mu.Lock()
	a.bodies[requestID] = append(a.bodies[requestID], body)
	a.mu.Unlock()
	a.got <- requestID + ":" + string(body)
	return nil
}

func (a *chanArchive) Deliveries(_ context.Context, _ uuid.UUID, requestID string) ([][]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bodies[requestID], nil
}

type env struct {
	router  *gin.Engine
	svc     *service.Service
	signer  *service.CallbackSigner
	tenant  uuid.UUID
	archive *chanArchive
	clock   *time.Time
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &env{
		signer:  service.NewCallbackSigner("https://crm.example.com", "webhook-secret"),
		tenant:  uuid.New(),
		archive: &chanArchive{got: make(chan string, 4), bodies: map[string][][]byte{}},
		clock:   &now,
	}
	repo := &memRepo{rows: map[uuid.UUID]domain.LookupRequest{}}
	e.svc = service.New(repo, fixedProvider{requestID: "555"}, e.signer, nil, logger.Discard(), time.Hour,
		service.WithClock(func() time.Time { return *e.clock }))

	h := New(e.svc, service.NewPoller(e.svc), external.DefaultCatalog(), e.archive, validator.New())
	wh := NewWebhookHandler(e.svc, e.signer, e.archive, logger.Discard())

	r := gin.New()
	r.POST(service.WebhookPath, wh.SignalHire)
	g := r.Group("/api/v1/lookups", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, e.tenant)
		c.Next()
	})
	g.POST("", h.Initiate)
	g.GET("/:id", h.Get)
	g.GET("/:id/wait", h.Wait)
	g.GET("/:id/transitions", h.History)
	g.GET("/:id/deliveries", h.Deliveries)
	e.router = r
	return e
}

func (e *env) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) initiate(t *testing.T, subject string) transport.LookupResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/lookups", `{"subject":"`+subject+`"}`, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp transport.LookupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (e *env) callbackPath(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(e.signer.URL(e.tenant))
	require.NoError(t, err)
	return u.RequestURI()
}

const successBody = `[{"item":"ana@acme.com","status":"success","candidate":{"fullName":"Ana Souza"}}]`

func TestInitiateAndResolveThroughWebhook(t *testing.T) {
	e := setup(t)
	created := e.initiate(t, "Ana@Acme.com")
	assert.Equal(t, domain.StatusInitiated, created.Status)
	assert.Equal(t, "ana@acme.com", created.SubjectIdentifier)
	assert.False(t, created.Terminal)

	hdr := http.Header{signalhire.HeaderRequestID: {"555"}}
	w := e.do(http.MethodPost, e.callbackPath(t), successBody, hdr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"resolved":1,"duplicates":0,"unmatched":0}`, w.Body.String())

	select {
	case got := <-e.archive.got:
		assert.Equal(t, "555:"+successBody, got)
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not archived")
	}

	w = e.do(http.MethodPost, e.callbackPath(t), successBody, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resolved":0,"duplicates":1,"unmatched":0}`, w.Body.String())

	w = e.do(http.MethodGet, "/api/v1/lookups/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got transport.LookupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.True(t, got.Terminal)
	assert.JSONEq(t, `{"fullName":"Ana Souza"}`, string(got.ResultPayload))
}

func TestInitiateRejectsUnrecognizedSubject(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, "/api/v1/lookups", `{"subject":"not a contact"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/v1/lookups", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	e := setup(t)
	path := service.WebhookPath + "?tenant=" + e.tenant.String() + "&sig=deadbeef"
	w := e.do(http.MethodPost, path, successBody, http.Header{signalhire.HeaderRequestID: {"555"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMalformedDelivery(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodPost, e.callbackPath(t), successBody, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, e.callbackPath(t), `{"not":"a list"}`, http.Header{signalhire.HeaderRequestID: {"555"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpiredLookupCarriesRetryMessage(t *testing.T) {
	e := setup(t)
	created := e.initiate(t, "ana@acme.com")

	*e.clock = e.clock.Add(2 * time.Hour)
	n, err := e.svc.SweepExpired(context.Background(), e.clock.Add(-time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	w := e.do(http.MethodGet, "/api/v1/lookups/"+created.ID.String(), "", http.Header{"Accept-Language": {"en"}})
	require.Equal(t, http.StatusOK, w.Code)
	var got transport.LookupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.StatusExpired, got.Status)
	assert.True(t, got.CanRetry)
	assert.NotEmpty(t, got.Message)
}

func TestWaitReportsClientTimeout(t *testing.T) {
	e := setup(t)
	created := e.initiate(t, "ana@acme.com")

	w := e.do(http.MethodGet, "/api/v1/lookups/"+created.ID.String()+"/wait?timeout=250ms&interval=100ms", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got transport.WaitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, service.OutcomeClientTimeout, got.Outcome)
	assert.Equal(t, domain.StatusInitiated, got.Lookup.Status)
}

func TestWaitRejectsBadDuration(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/api/v1/lookups/"+uuid.NewString()+"/wait?timeout=soon", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUnknownLookup(t *testing.T) {
	e := setup(t)
	w := e.do(http.MethodGet, "/api/v1/lookups/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/api/v1/lookups/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeliveriesReturnsArchivedCallbacks(t *testing.T) {
	e := setup(t)
	created := e.initiate(t, "ana@acme.com")

	w := e.do(http.MethodPost, e.callbackPath(t), successBody, http.Header{signalhire.HeaderRequestID: {"555"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	select {
	case <-e.archive.got:
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not archived")
	}

	w = e.do(http.MethodGet, "/api/v1/lookups/"+created.ID.String()+"/deliveries", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got transport.DeliveriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "555", got.RequestID)
	require.Len(t, got.Deliveries, 1)
	assert.JSONEq(t, successBody, string(got.Deliveries[0]))
}

func TestDeliveriesWithoutArchiveIsUnavailable(t *testing.T) {
	e := setup(t)
	created := e.initiate(t, "ana@acme.com")

	h := New(e.svc, service.NewPoller(e.svc), external.DefaultCatalog(), nil, validator.New())
	r := gin.New()
	r.GET("/lookups/:id/deliveries", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, e.tenant)
		c.Next()
	}, h.Deliveries)

	req := httptest.NewRequest(http.MethodGet, "/lookups/"+created.ID.String()+"/deliveries", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
