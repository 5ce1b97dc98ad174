// Package fulfillment settles paid invoices: it completes the catalog order,
// grants file access, records the customer's purchases, and sends the
// delivery email. The whole pipeline is idempotent per webhook event.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/internal/event"
	"github.com/geloski43/edcommerce/internal/mailer"
	"github.com/geloski43/edcommerce/internal/payment"
)

// CatalogAPI is the slice of the catalog client fulfillment uses.
type CatalogAPI interface {
	FindOrderByExternalRef(ctx context.Context, ref string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error
	FindUserByEmail(ctx context.Context, email string) (*catalog.User, error)
	CreateUser(ctx context.Context, email string) (*catalog.User, error)
	UpdateUserPurchased(ctx context.Context, userID int, productIDs []int) error
}

// FileStore grants read access on delivered files.
type FileStore interface {
	GrantReader(ctx context.Context, fileID, email string) error
	ViewerLink(fileID string) string
}

// Mailer sends the delivery email.
type Mailer interface {
	SendDelivery(ctx context.Context, to, orderRef string, items []mailer.DeliveryItem) error
}

// EventPublisher publishes fulfillment lifecycle events.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, externalRef, email, channel string) error
	PublishDeliveryGranted(ctx context.Context, data event.DeliveryGrantedData) error
}

// Service processes payment-confirmation webhooks.
type Service struct {
	repo    Repository
	catalog CatalogAPI
	files   FileStore
	mail    Mailer
	events  EventPublisher
	logger  *slog.Logger
	nowFunc func() time.Time // injectable clock for testing
}

// NewService creates a fulfillment service.
func NewService(repo Repository, catalogAPI CatalogAPI, files FileStore, mail Mailer, events EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalogAPI,
		files:   files,
		mail:    mail,
		events:  events,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// ProcessWebhook settles one payment callback. Non-paid statuses and
// duplicate or unknown events are acknowledged without side effects so the
// provider stops retrying. Only the order completion itself is allowed to
// fail the webhook; a failure there releases the idempotency claim so the
// provider's retry runs the pipeline again. Everything downstream of the
// completion is best effort.
func (s *Service) ProcessWebhook(ctx context.Context, ev *payment.WebhookEvent) error {
	if !ev.IsPaid() {
		s.logger.InfoContext(ctx, "ignoring non-paid webhook",
			slog.String("external_ref", ev.ExternalID),
			slog.String("status", ev.Status),
		)
		return nil
	}

	first, err := s.repo.MarkEventProcessed(ctx, s.eventKey(ev), ev.ExternalID)
	if err != nil {
		return fmt.Errorf("claim webhook event: %w", err)
	}
	if !first {
		s.logger.InfoContext(ctx, "duplicate webhook, already fulfilled",
			slog.String("external_ref", ev.ExternalID),
			slog.String("event_id", ev.ID),
		)
		return nil
	}

	order, err := s.catalog.FindOrderByExternalRef(ctx, ev.ExternalID)
	if err != nil {
		s.releaseClaim(ctx, ev)
		return fmt.Errorf("resolve order %s: %w", ev.ExternalID, err)
	}
	if order == nil {
		s.logger.WarnContext(ctx, "webhook for unknown order, ignoring",
			slog.String("external_ref", ev.ExternalID),
		)
		return nil
	}

	if err := s.completeOrder(ctx, order, ev); err != nil {
		s.releaseClaim(ctx, ev)
		return err
	}

	email := ev.PayerEmail
	if email == "" {
		email = order.Email
	}

	refs, items := s.deliverables(ctx, ev)
	s.recordPurchases(ctx, email, refs)
	delivered := s.grantAccess(ctx, ev.ExternalID, email, refs, items)

	if len(delivered) > 0 {
		if err := s.mail.SendDelivery(ctx, email, ev.ExternalID, delivered); err != nil {
			s.logger.ErrorContext(ctx, "delivery email failed",
				slog.String("external_ref", ev.ExternalID),
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.events.PublishOrderCompleted(ctx, ev.ExternalID, email, ev.Channel()); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.completed event",
			slog.String("external_ref", ev.ExternalID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order fulfilled",
		slog.String("external_ref", ev.ExternalID),
		slog.String("email", email),
		slog.Int("delivered_files", len(delivered)),
	)

	return nil
}

// releaseClaim hands the event id back so the provider's retry of a failed
// delivery is processed instead of being dropped as a duplicate. The webhook
// is about to return an error either way, so a failed release is only logged;
// the event then stays claimed and needs manual reconciliation.
func (s *Service) releaseClaim(ctx context.Context, ev *payment.WebhookEvent) {
	if err := s.repo.ReleaseEvent(ctx, s.eventKey(ev)); err != nil {
		s.logger.ErrorContext(ctx, "failed to release webhook claim",
			slog.String("external_ref", ev.ExternalID),
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
}

// eventKey returns the idempotency key for the webhook. Providers resend the
// same event id on retries; when the id is missing, the correlation id plus
// status stands in.
func (s *Service) eventKey(ev *payment.WebhookEvent) string {
	if ev.ID != "" {
		return ev.ID
	}
	return ev.ExternalID + ":" + ev.Status
}

func (s *Service) completeOrder(ctx context.Context, order *domain.Order, ev *payment.WebhookEvent) error {
	paidAt := s.nowFunc().UTC()
	if ev.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, ev.PaidAt); err == nil {
			paidAt = t
		}
	}

	fields := map[string]any{
		"status":          string(domain.OrderCompleted),
		"paid_at":         paidAt.Format(time.RFC3339),
		"payment_channel": ev.Channel(),
	}
	if err := s.catalog.UpdateOrder(ctx, order.ID, fields); err != nil {
		return fmt.Errorf("complete order %d: %w", order.ID, err)
	}
	return nil
}

// deliverables extracts the file references carried on the webhook items.
// Items without a usable reference are physical goods and are skipped.
func (s *Service) deliverables(ctx context.Context, ev *payment.WebhookEvent) ([]payment.ItemRef, []payment.WebhookItem) {
	var refs []payment.ItemRef
	var items []payment.WebhookItem
	for _, item := range ev.Items {
		ref, ok := payment.ParseItemRef(item)
		if !ok {
			continue
		}
		refs = append(refs, ref)
		items = append(items, item)
	}
	if len(refs) == 0 {
		s.logger.InfoContext(ctx, "no digital items on webhook",
			slog.String("external_ref", ev.ExternalID),
		)
	}
	return refs, items
}

// recordPurchases merges the delivered catalog ids into the customer's
// purchased set, creating the customer record on first purchase. Failures
// are logged; delivery proceeds regardless.
func (s *Service) recordPurchases(ctx context.Context, email string, refs []payment.ItemRef) {
	if len(refs) == 0 {
		return
	}

	incoming := make([]int, 0, len(refs))
	for _, ref := range refs {
		incoming = append(incoming, ref.CatalogID)
	}

	user, err := s.catalog.FindUserByEmail(ctx, email)
	if err != nil {
		s.logger.ErrorContext(ctx, "purchase record lookup failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return
	}
	if user == nil {
		user, err = s.catalog.CreateUser(ctx, email)
		if err != nil {
			s.logger.ErrorContext(ctx, "customer record creation failed",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	merged := domain.MergePurchased(user.PurchasedIDs, incoming)
	if len(merged) == len(user.PurchasedIDs) {
		return
	}
	if err := s.catalog.UpdateUserPurchased(ctx, user.ID, merged); err != nil {
		s.logger.ErrorContext(ctx, "purchase record update failed",
			slog.String("email", email),
			slog.Int("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}

// grantAccess grants the reader permission per file and builds the delivery
// email items. A rejected grant still yields the viewer link; the customer
// can request access from the link, and the grant row records the failure.
func (s *Service) grantAccess(ctx context.Context, externalRef, email string, refs []payment.ItemRef, items []payment.WebhookItem) []mailer.DeliveryItem {
	delivered := make([]mailer.DeliveryItem, 0, len(refs))
	for i, ref := range refs {
		granted := true
		if err := s.files.GrantReader(ctx, ref.FileID, email); err != nil {
			granted = false
			s.logger.ErrorContext(ctx, "file permission grant failed",
				slog.String("external_ref", externalRef),
				slog.String("file_id", ref.FileID),
				slog.String("error", err.Error()),
			)
		}
		link := s.files.ViewerLink(ref.FileID)

		grant := &domain.DeliveryGrant{
			ExternalRef: externalRef,
			Email:       email,
			FileID:      ref.FileID,
			CatalogID:   ref.CatalogID,
			Granted:     granted,
			ViewerLink:  link,
		}
		if err := s.repo.RecordGrant(ctx, grant); err != nil {
			s.logger.ErrorContext(ctx, "delivery grant record failed",
				slog.String("external_ref", externalRef),
				slog.String("file_id", ref.FileID),
				slog.String("error", err.Error()),
			)
		}

		if err := s.events.PublishDeliveryGranted(ctx, event.DeliveryGrantedData{
			ExternalRef: externalRef,
			Email:       email,
			FileID:      ref.FileID,
			CatalogID:   ref.CatalogID,
			Granted:     granted,
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish delivery.granted event",
				slog.String("external_ref", externalRef),
				slog.String("file_id", ref.FileID),
				slog.String("error", err.Error()),
			)
		}

		delivered = append(delivered, mailer.DeliveryItem{
			Name: items[i].Name,
			Link: link,
		})
	}
	return delivered
}

// DeliveryTrail returns the recorded grants for one order, newest first.
func (s *Service) DeliveryTrail(ctx context.Context, externalRef string) ([]domain.DeliveryGrant, error) {
	return s.repo.GrantsByExternalRef(ctx, externalRef)
}
