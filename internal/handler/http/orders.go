package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geloski43/edcommerce/internal/fulfillment"
	"github.com/geloski43/edcommerce/internal/orders"
	"github.com/geloski43/edcommerce/pkg/httputil"
)

// OrdersHandler serves order history and delivery trails.
type OrdersHandler struct {
	history     *orders.Service
	fulfillment *fulfillment.Service
	logger      *slog.Logger
}

// NewOrdersHandler creates a new orders HTTP handler.
func NewOrdersHandler(history *orders.Service, ful *fulfillment.Service, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{history: history, fulfillment: ful, logger: logger}
}

// ListOrders handles GET /api/v1/orders. The signed-in session's email wins
// over the query parameter so customers only ever see their own history.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if profile := ProfileFromContext(r.Context()); profile.Email != "" {
		email = profile.Email
	}

	list, err := h.history.History(r.Context(), email)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// ListDeliveries handles GET /api/v1/orders/{externalRef}/deliveries
func (h *OrdersHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "externalRef")

	trail, err := h.fulfillment.DeliveryTrail(r.Context(), ref)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: trail})
}
