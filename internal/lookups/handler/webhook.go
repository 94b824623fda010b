package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"prospecting_backend/internal/integrations/signalhire"
	"prospecting_backend/internal/lookups/service"
	"prospecting_backend/internal/lookups/transport"
	"prospecting_backend/platform/httpkit"
	"prospecting_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxCallbackBody = 1 << 20
	callbackTimeout = 5 * time.Second
	archiveTimeout  = 15 * time.Second
)

// CallbackArchive stores raw provider deliveries and reads them back per request.
type CallbackArchive interface {
	ArchiveCallback(ctx context.Context, tenantID uuid.UUID, requestID string, body []byte) error
	Deliveries(ctx context.Context, tenantID uuid.UUID, requestID string) ([][]byte, error)
}

// WebhookHandler receives SignalHire callbacks. The tenant comes from the signed URL.
type WebhookHandler struct {
	svc     *service.Service
	signer  *service.CallbackSigner
	archive CallbackArchive
	log     *logger.Logger
}

// NewWebhookHandler builds the receiver; archive may be nil.
func NewWebhookHandler(svc *service.Service, signer *service.CallbackSigner, archive CallbackArchive, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, signer: signer, archive: archive, log: log}
}

// SignalHire applies a callback and acknowledges it.
// A 5xx tells the provider to redeliver; duplicates are acknowledged with 200.
// POST /api/v1/webhook/signalhire?tenant=<uuid>&sig=<hex>
func (h *WebhookHandler) SignalHire(c *gin.Context) {
	tenantID, ok := h.signer.Verify(c.Query("tenant"), c.Query("sig"))
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "invalid callback signature", nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, "callback too large", nil)
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	cb, err := signalhire.ParseCallback(c.GetHeader(signalhire.HeaderRequestID), body)
	if err != nil {
		h.log.WithContext(c.Request.Context()).Warn("rejected signalhire callback", "error", err)
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	h.archiveAsync(c.Request.Context(), tenantID, cb.RequestID, body)

	ctx, cancel := context.WithTimeout(c.Request.Context(), callbackTimeout)
	defer cancel()
	out, err := h.svc.HandleCallback(ctx, tenantID, cb)
	if err != nil {
		h.log.WithContext(ctx).Error("failed to apply signalhire callback", "request_id", cb.RequestID, "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "callback not applied", nil)
		return
	}
	httpkit.OK(c, transport.CallbackAck(out))
}

func (h *WebhookHandler) archiveAsync(ctx context.Context, tenantID uuid.UUID, requestID string, body []byte) {
	if h.archive == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
		defer cancel()
		if err := h.archive.ArchiveCallback(ctx, tenantID, requestID, body); err != nil {
			h.log.WithContext(ctx).Warn("failed to archive callback", "request_id", requestID, "error", err)
		}
	}()
}
