package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/currency"
	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
	"github.com/geloski43/edcommerce/pkg/httputil"
)

// CatalogHandler serves the mirrored catalog collections.
type CatalogHandler struct {
	mirror *catalog.Mirror
	logger *slog.Logger
}

// NewCatalogHandler creates a catalog HTTP handler backed by the mirror.
func NewCatalogHandler(mirror *catalog.Mirror, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{mirror: mirror, logger: logger}
}

// ProductView is a product plus its formatted display price.
type ProductView struct {
	domain.Product
	DisplayPrice string `json:"display_price"`
}

// ListProducts handles GET /api/v1/products. The optional currency query
// parameter picks the display currency; the configured default applies
// otherwise. Draft products never leave the catalog.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.mirror.Products(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	cfg, err := h.displayCurrency(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		if p.Draft {
			continue
		}
		views = append(views, ProductView{
			Product:      p,
			DisplayPrice: currency.Format(p.Price, *cfg),
		})
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: views})
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.mirror.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// ListSubCategories handles GET /api/v1/sub-categories
func (h *CatalogHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	subCategories, err := h.mirror.SubCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: subCategories})
}

// ListCurrencies handles GET /api/v1/currencies
func (h *CatalogHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.mirror.Currencies(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: currencies})
}

func (h *CatalogHandler) displayCurrency(r *http.Request) (*domain.CurrencyConfig, error) {
	currencies, err := h.mirror.Currencies(r.Context())
	if err != nil {
		return nil, err
	}

	code := r.URL.Query().Get("currency")
	var fallback *domain.CurrencyConfig
	for i := range currencies {
		if currencies[i].Code == code {
			return &currencies[i], nil
		}
		if currencies[i].Default {
			fallback = &currencies[i]
		}
	}
	if code != "" {
		return nil, apperrors.InvalidInput("unknown currency " + code)
	}
	if fallback == nil {
		return nil, apperrors.Internal(errors.New("no default currency configured"))
	}
	return fallback, nil
}
