package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geloski43/edcommerce/internal/catalogsync"
	"github.com/geloski43/edcommerce/pkg/httputil"
)

// SyncHandler exposes the folder-tree sync runs. Every route sits behind the
// sync-secret middleware.
type SyncHandler struct {
	service *catalogsync.Service
	logger  *slog.Logger
}

// NewSyncHandler creates a new catalog sync handler.
func NewSyncHandler(svc *catalogsync.Service, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{service: svc, logger: logger}
}

// SyncCategories handles POST /api/sync/categories
func (h *SyncHandler) SyncCategories(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.SyncCategories)
}

// SyncSubCategories handles POST /api/sync/sub-categories
func (h *SyncHandler) SyncSubCategories(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.SyncSubCategories)
}

// SyncProducts handles POST /api/sync/products
func (h *SyncHandler) SyncProducts(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.SyncProducts)
}

func (h *SyncHandler) run(w http.ResponseWriter, r *http.Request, pass func(ctx context.Context) ([]catalogsync.FolderReport, error)) {
	reports, err := pass(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if reports == nil {
		reports = []catalogsync.FolderReport{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reports})
}
