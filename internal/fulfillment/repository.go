package fulfillment

import (
	"context"

	"github.com/geloski43/edcommerce/internal/domain"
)

// Repository persists the webhook idempotency gate and the delivery audit
// trail.
type Repository interface {
	// MarkEventProcessed records the event id and reports whether this call
	// claimed it. A false return means the event was already handled and the
	// webhook must be treated as a duplicate.
	MarkEventProcessed(ctx context.Context, eventID, externalRef string) (bool, error)

	// ReleaseEvent removes a claimed event id so a provider redelivery can
	// run the pipeline again. Called when fulfillment fails after the claim
	// but before the order is completed.
	ReleaseEvent(ctx context.Context, eventID string) error

	// RecordGrant appends one delivery grant row.
	RecordGrant(ctx context.Context, g *domain.DeliveryGrant) error

	// GrantsByExternalRef returns the delivery trail for one order, newest
	// first.
	GrantsByExternalRef(ctx context.Context, externalRef string) ([]domain.DeliveryGrant, error)
}
