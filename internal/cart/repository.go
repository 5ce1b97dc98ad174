package cart

import (
	"context"

	"github.com/geloski43/edcommerce/internal/domain"
)

// Repository defines cart persistence. Carts live per session and expire
// with the store's TTL.
type Repository interface {
	// Get retrieves the cart for a session id.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the session.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the cart for a session id.
	Delete(ctx context.Context, sessionID string) error
}
