package handler

import (
	"net/http"

	"prospecting_backend/internal/integrations/credentials"
	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/integrations/registry"
	"prospecting_backend/internal/integrations/transport"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnknownService   = "unknown integration"
	headerAcceptLang    = "Accept-Language"
)

// Handler serves credential management and connection tests.
type Handler struct {
	creds    *credentials.Service
	registry *registry.Registry
	catalog  *external.Catalog
	val      *validator.Validator
}

func New(creds *credentials.Service, reg *registry.Registry, catalog *external.Catalog, val *validator.Validator) *Handler {
	return &Handler{creds: creds, registry: reg, catalog: catalog, val: val}
}

// List returns every supported integration and whether the tenant configured it.
// GET /api/v1/integrations
func (h *Handler) List(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	statuses, err := h.creds.Statuses(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, statuses)
}

// SaveCredential stores or replaces the secret for a service.
// PUT /api/v1/integrations/:service/credential
func (h *Handler) SaveCredential(c *gin.Context) {
	service, ok := serviceParam(c)
	if !ok {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.SaveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}

	status, err := h.creds.Save(c.Request.Context(), tenantID, service, req.Secret)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

// DeleteCredential removes the secret for a service.
// DELETE /api/v1/integrations/:service/credential
func (h *Handler) DeleteCredential(c *gin.Context) {
	service, ok := serviceParam(c)
	if !ok {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.creds.Delete(c.Request.Context(), tenantID, service)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// Test runs the connection test for one service. A failed test is still a 200;
// the body carries the localized reason.
// POST /api/v1/integrations/:service/test
func (h *Handler) Test(c *gin.Context) {
	service, ok := serviceParam(c)
	if !ok {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.registry.Test(c.Request.Context(), tenantID, service)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result.Localize(h.catalog, c.GetHeader(headerAcceptLang)))
}

// TestAll tests every configured service concurrently.
// GET /api/v1/integrations/test
func (h *Handler) TestAll(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}
	configured, err := h.creds.ConfiguredServices(c.Request.Context(), tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	results := h.registry.TestAll(c.Request.Context(), tenantID, configured)
	lang := c.GetHeader(headerAcceptLang)
	for i := range results {
		results[i] = results[i].Localize(h.catalog, lang)
	}
	httpkit.OK(c, transport.TestAllResponse{Results: results})
}

func serviceParam(c *gin.Context) (external.ServiceName, bool) {
	service, err := external.ParseServiceName(c.Param("service"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, msgUnknownService, nil)
		return "", false
	}
	return service, true
}
