package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// MaxLinesPerCart bounds the number of distinct products in one cart.
const MaxLinesPerCart = 50

// ProductFinder resolves products for cart mutations, normally the catalog
// mirror. The cart never trusts client-sent prices.
type ProductFinder interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Service implements the cart ledger operations over the session store.
type Service struct {
	repo     Repository
	products ProductFinder
	logger   *slog.Logger
}

// NewService creates a cart service.
func NewService(repo Repository, products ProductFinder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   logger,
	}
}

// Get retrieves the cart for a session. A missing cart comes back empty.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(sessionID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem puts the product in the session's cart. Digital products already
// in the cart are left untouched; physical repeats increment quantity.
func (s *Service) AddItem(ctx context.Context, sessionID string, productID int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if cart.FindLine(productID) < 0 && len(cart.Lines) >= MaxLinesPerCart {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not exceed %d distinct products", MaxLinesPerCart))
	}

	cart.AddItem(product)
	cart.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart item added",
		slog.String("session_id", sessionID),
		slog.Int("product_id", productID),
		slog.Int("lines", len(cart.Lines)),
	)

	return cart, nil
}

// UpdateQuantity applies a signed delta to the product's line. Positive
// deltas on digital lines are silently ignored; a line reaching zero is
// removed.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID, delta int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if delta == 0 {
		return nil, apperrors.InvalidInput("delta must not be zero")
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.UpdateQuantity(productID, delta)
	cart.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return cart, nil
}

// RemoveItem deletes the product's line. Removing an absent product is not
// an error.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int) (*domain.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cart, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productID)
	cart.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	return cart, nil
}

// Clear empties the session's cart. Called on checkout-success
// acknowledgement; the clear is optimistic and does not wait for payment
// settlement.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("session_id", sessionID))
	return nil
}

func (s *Service) newEmptyCart(sessionID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) findProduct(ctx context.Context, productID int) (*domain.Product, error) {
	products, err := s.products.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, apperrors.NotFound("product", fmt.Sprintf("%d", productID))
}
