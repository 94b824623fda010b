package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"prospecting_backend/internal/integrations/external"
	"prospecting_backend/internal/lookups/domain"
	"prospecting_backend/internal/lookups/service"
	"prospecting_backend/internal/lookups/transport"
	"prospecting_backend/platform/apperr"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lookup ID"
	msgInvalidDuration  = "timeout and interval must be durations such as 30s"
)

// Handler serves the tenant-facing lookup API.
type Handler struct {
	svc     *service.Service
	poller  *service.Poller
	catalog *external.Catalog
	val     *validator.Validator
	archive CallbackArchive
}

// New builds the tenant API; archive may be nil.
func New(svc *service.Service, poller *service.Poller, catalog *external.Catalog, archive CallbackArchive, val *validator.Validator) *Handler {
	return &Handler{svc: svc, poller: poller, catalog: catalog, archive: archive, val: val}
}

// Initiate starts a lookup and returns it in the initiated state.
// POST /api/v1/lookups
func (h *Handler) Initiate(c *gin.Context) {
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	var req transport.InitiateLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}

	lookup, err := h.svc.Initiate(c.Request.Context(), tenantID, req.Subject, h.svc.CallbackURL(tenantID))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Accepted(c, h.toResponse(c, lookup))
}

// Get returns the current snapshot.
// GET /api/v1/lookups/:id
func (h *Handler) Get(c *gin.Context) {
	tenantID, lookupID, ok := h.ids(c)
	if !ok {
		return
	}
	lookup, err := h.svc.GetStatus(c.Request.Context(), tenantID, lookupID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, h.toResponse(c, lookup))
}

// History lists the recorded transitions.
// GET /api/v1/lookups/:id/transitions
func (h *Handler) History(c *gin.Context) {
	tenantID, lookupID, ok := h.ids(c)
	if !ok {
		return
	}
	transitions, err := h.svc.History(c.Request.Context(), tenantID, lookupID)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.TransitionResponse, len(transitions))
	for i, t := range transitions {
		out[i] = transport.TransitionResponse{From: t.From, To: t.To, OccurredAt: t.OccurredAt}
	}
	httpkit.OK(c, out)
}

// Deliveries returns the raw callbacks archived for the lookup's provider request.
// GET /api/v1/lookups/:id/deliveries
func (h *Handler) Deliveries(c *gin.Context) {
	tenantID, lookupID, ok := h.ids(c)
	if !ok {
		return
	}
	if h.archive == nil {
		httpkit.HandleError(c, apperr.Unavailable("callback archive is not configured", nil))
		return
	}

	lookup, err := h.svc.GetStatus(c.Request.Context(), tenantID, lookupID)
	if httpkit.HandleError(c, err) {
		return
	}
	bodies, err := h.archive.Deliveries(c.Request.Context(), tenantID, lookup.ExternalRequestID)
	if err != nil {
		httpkit.HandleError(c, apperr.Unavailable("callback archive unavailable", err))
		return
	}

	resp := transport.DeliveriesResponse{RequestID: lookup.ExternalRequestID, Deliveries: make([]json.RawMessage, len(bodies))}
	for i, body := range bodies {
		resp.Deliveries[i] = body
	}
	httpkit.OK(c, resp)
}

// Wait long-polls until the lookup is terminal or the timeout elapses.
// GET /api/v1/lookups/:id/wait?timeout=30s&interval=2s
func (h *Handler) Wait(c *gin.Context) {
	tenantID, lookupID, ok := h.ids(c)
	if !ok {
		return
	}

	var q transport.WaitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	opts, err := pollOptions(q)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDuration, nil)
		return
	}

	res, err := h.poller.Wait(c.Request.Context(), tenantID, lookupID, opts)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.WaitResponse{Outcome: res.Outcome(), Polls: res.Polls, Lookup: h.toResponse(c, res.Lookup)}
	httpkit.OK(c, resp)
}

func (h *Handler) ids(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	lookupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, uuid.Nil, false
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, lookupID, true
}

// toResponse adds the localized "try again" message for expired lookups.
func (h *Handler) toResponse(c *gin.Context, l domain.LookupRequest) transport.LookupResponse {
	resp := transport.LookupResponse{
		ID:                l.ID,
		Service:           l.Service,
		SubjectIdentifier: l.SubjectIdentifier,
		Status:            l.Status,
		Terminal:          l.Status.Terminal(),
		ResultPayload:     l.ResultPayload,
		ErrorMessage:      l.ErrorMessage,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
	switch l.Status {
	case domain.StatusExpired:
		resp.Message = h.catalog.Message(string(external.CategoryExpired), c.GetHeader("Accept-Language"), external.ServiceSignalHire)
		resp.CanRetry = true
	case domain.StatusFailed:
		resp.CanRetry = true
	}
	return resp
}

func pollOptions(q transport.WaitQuery) (service.PollOptions, error) {
	var opts service.PollOptions
	var err error
	if q.Timeout != "" {
		if opts.Timeout, err = time.ParseDuration(q.Timeout); err != nil {
			return opts, err
		}
	}
	if q.Interval != "" {
		if opts.Interval, err = time.ParseDuration(q.Interval); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
