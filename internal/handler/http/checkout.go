package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/geloski43/edcommerce/internal/checkout"
	"github.com/geloski43/edcommerce/pkg/httputil"
	"github.com/geloski43/edcommerce/pkg/validator"
)

// CheckoutHandler handles payment initiation.
type CheckoutHandler struct {
	service *checkout.Service
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *checkout.Service, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// PlaceOrder handles POST /api/v1/checkout
//
// The email defaults to the synced session identity when the body omits it,
// so signed-in customers cannot place orders for someone else's address.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req checkout.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if profile := ProfileFromContext(r.Context()); profile.Email != "" {
		req.Email = profile.Email
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.PlaceOrder(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}
