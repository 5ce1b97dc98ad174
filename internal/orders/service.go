// Package orders exposes a customer's order history from the catalog.
package orders

import (
	"context"
	"log/slog"
	"sort"

	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// CatalogAPI is the slice of the catalog client the history proxy uses.
type CatalogAPI interface {
	FindOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error)
}

// Service proxies order history lookups to the catalog.
type Service struct {
	catalog CatalogAPI
	logger  *slog.Logger
}

// NewService creates an order history service.
func NewService(catalogAPI CatalogAPI, logger *slog.Logger) *Service {
	return &Service{catalog: catalogAPI, logger: logger}
}

// History returns the customer's orders, newest first. A customer with no
// orders gets an empty list, not an error.
func (s *Service) History(ctx context.Context, email string) ([]domain.Order, error) {
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	orders, err := s.catalog.FindOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
