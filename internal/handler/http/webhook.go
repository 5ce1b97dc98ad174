package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/geloski43/edcommerce/internal/fulfillment"
	"github.com/geloski43/edcommerce/internal/payment"
	"github.com/geloski43/edcommerce/pkg/httputil"
)

// WebhookHandler receives payment provider callbacks.
type WebhookHandler struct {
	service *fulfillment.Service
	logger  *slog.Logger
}

// NewWebhookHandler creates a new payment webhook handler.
func NewWebhookHandler(svc *fulfillment.Service, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{service: svc, logger: logger}
}

// HandleCallback handles POST /api/payment/webhook. The callback token
// check happens in the shared-secret middleware; by the time this runs the
// payload is trusted to come from the provider.
func (h *WebhookHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var ev payment.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid webhook payload: " + err.Error()},
		})
		return
	}
	if ev.ExternalID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "external_id is required"},
		})
		return
	}

	if err := h.service.ProcessWebhook(r.Context(), &ev); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"received": true}})
}
