package postgres

import (
	"context"
	"fmt"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/pkg/database"
)

// FulfillmentRepository implements fulfillment.Repository using PostgreSQL.
type FulfillmentRepository struct {
	db database.DBTX
}

// NewFulfillmentRepository creates a new PostgreSQL-backed fulfillment
// repository.
func NewFulfillmentRepository(db database.DBTX) *FulfillmentRepository {
	return &FulfillmentRepository{db: db}
}

// MarkEventProcessed claims a webhook event id. The insert is the
// idempotency gate: a conflicting row means another delivery of the same
// event already ran, and the caller must not fulfill again.
func (r *FulfillmentRepository) MarkEventProcessed(ctx context.Context, eventID, externalRef string) (bool, error) {
	query := `
		INSERT INTO processed_payment_events (event_id, external_ref)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING`

	ct, err := r.db.Exec(ctx, query, eventID, externalRef)
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// ReleaseEvent drops a claimed event id. Fulfillment releases the claim when
// it fails before completing the order, so the provider's retry is not
// mistaken for a duplicate.
func (r *FulfillmentRepository) ReleaseEvent(ctx context.Context, eventID string) error {
	query := `DELETE FROM processed_payment_events WHERE event_id = $1`

	if _, err := r.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("release event: %w", err)
	}

	return nil
}

// RecordGrant appends one delivery grant row.
func (r *FulfillmentRepository) RecordGrant(ctx context.Context, g *domain.DeliveryGrant) error {
	query := `
		INSERT INTO delivery_grants (external_ref, email, file_id, catalog_id, granted, viewer_link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		g.ExternalRef,
		g.Email,
		g.FileID,
		g.CatalogID,
		g.Granted,
		g.ViewerLink,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery grant: %w", err)
	}

	return nil
}

// GrantsByExternalRef returns the delivery trail for one order, newest first.
func (r *FulfillmentRepository) GrantsByExternalRef(ctx context.Context, externalRef string) ([]domain.DeliveryGrant, error) {
	query := `
		SELECT id, external_ref, email, file_id, catalog_id, granted, viewer_link, created_at
		FROM delivery_grants
		WHERE external_ref = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, externalRef)
	if err != nil {
		return nil, fmt.Errorf("query delivery grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.DeliveryGrant
	for rows.Next() {
		var g domain.DeliveryGrant
		if err := rows.Scan(&g.ID, &g.ExternalRef, &g.Email, &g.FileID, &g.CatalogID, &g.Granted, &g.ViewerLink, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery grants: %w", err)
	}

	return grants, nil
}
