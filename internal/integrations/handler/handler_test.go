package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"prospecting_backend/internal/integrations/credentials"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/registry"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/logger"
	"prospecting_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type memStore struct {
	mu   sync.Mutex
	rows map[external.ServiceName]credentials.Record
}

func (m *memStore) Upsert(_ context.Context, orgID uuid.UUID, service external.ServiceName, encrypted string) (credentials.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := credentials.Record{ID: uuid.New(), OrganizationID: orgID, Service: service, EncryptedSecret: encrypted, UpdatedAt: time.Now()}
	m.rows[service] = rec
	return rec, nil
}

func (m *memStore) Get(_ context.Context, _ uuid.UUID, service external.ServiceName) (credentials.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[service]
	if !ok {
		return credentials.Record{}, credentials.ErrCredentialNotFound
	}
	return rec, nil
}

func (m *memStore) Delete(_ context.Context, _ uuid.UUID, service external.ServiceName) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[service]
	delete(m.rows, service)
	return ok, nil
}

func (m *memStore) List(context.Context, uuid.UUID) ([]credentials.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]credentials.Record, 0, len(m.rows))
	for _, rec := range m.rows {
		out = append(out, rec)
	}
	return out, nil
}

type stubAdapter struct {
	name   external.ServiceName
	result external.ConnectionResult
}

func (s stubAdapter) Name() external.ServiceName { return s.name }
func (s stubAdapter) TestConnection(context.Context, uuid.UUID) external.ConnectionResult {
	return s.result
}

func setup(t *testing.T, adapters ...external.Adapter) (*gin.Engine, *credentials.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cipher, err := credentials.NewCipher(testKey)
	require.NoError(t, err)
	creds := credentials.NewService(&memStore{rows: map[external.ServiceName]credentials.Record{}}, cipher, nil, logger.Discard())
	h := New(creds, registry.New(adapters...), external.DefaultCatalog(), validator.New())

	tenantID := uuid.New()
	r := gin.New()
	g := r.Group("/integrations", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, tenantID)
		c.Next()
	})
	g.GET("", h.List)
	g.GET("/test", h.TestAll)
	g.PUT("/:service/credential", h.SaveCredential)
	g.DELETE("/:service/credential", h.DeleteCredential)
	g.POST("/:service/test", h.Test)
	return r, creds
}

func do(r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSaveListDelete(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPut, "/integrations/apollo/credential", `{"secret":"apollo-key"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "apollo-key")

	w = do(r, http.MethodGet, "/integrations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statuses []credentials.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	require.Len(t, statuses, len(external.AllServices()))
	for _, st := range statuses {
		assert.Equal(t, st.Service == external.ServiceApollo, st.Configured, st.Service)
	}

	w = do(r, http.MethodDelete, "/integrations/apollo/credential", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodDelete, "/integrations/apollo/credential", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveRejectsBadInput(t *testing.T) {
	r, _ := setup(t)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/integrations/hubspot/credential", `{"secret":"x"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/integrations/apollo/credential", `{"secret":""}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/integrations/snovio/credential", `{"secret":"not-json"}`, nil).Code)
}

func TestTestIsLocalized(t *testing.T) {
	r, _ := setup(t, stubAdapter{name: external.ServiceApollo, result: external.ConnectionResult{
		Service: external.ServiceApollo, Category: external.CategoryAuth,
	}})

	en := do(r, http.MethodPost, "/integrations/apollo/test", "", http.Header{"Accept-Language": {"en-US"}})
	pt := do(r, http.MethodPost, "/integrations/apollo/test", "", nil)

	require.Equal(t, http.StatusOK, en.Code)
	var enBody, ptBody external.ConnectionResult
	require.NoError(t, json.Unmarshal(en.Body.Bytes(), &enBody))
	require.NoError(t, json.Unmarshal(pt.Body.Bytes(), &ptBody))
	assert.False(t, enBody.Success)
	assert.Contains(t, enBody.Message, "Apollo")
	assert.NotEqual(t, enBody.Message, ptBody.Message)
}

func TestTestUnregisteredAdapterIsNotFound(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodPost, "/integrations/zapi/test", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTestAllCoversConfiguredOnly(t *testing.T) {
	r, _ := setup(t,
		stubAdapter{name: external.ServiceApollo, result: external.ConnectionResult{Service: external.ServiceApollo, Success: true}},
		stubAdapter{name: external.ServiceApify, result: external.ConnectionResult{Service: external.ServiceApify, Success: true}},
	)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/integrations/apify/credential", `{"secret":"tok"}`, nil).Code)

	w := do(r, http.MethodGet, "/integrations/test", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Results []external.ConnectionResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, external.ServiceApify, body.Results[0].Service)
	assert.True(t, body.Results[0].Success)
}
