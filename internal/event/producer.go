package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/geloski43/edcommerce/internal/domain"
	pkgkafka "github.com/geloski43/edcommerce/pkg/kafka"
)

// Kafka topics for storefront domain events.
const (
	TopicOrderPlaced     = "store.order.placed"
	TopicOrderCompleted  = "store.order.completed"
	TopicDeliveryGranted = "store.delivery.granted"
)

const (
	aggregateTypeOrder    = "order"
	aggregateTypeDelivery = "delivery"
	source                = "storefront"
)

// OrderPlacedData is the payload for a store.order.placed event.
type OrderPlacedData struct {
	ExternalRef string          `json:"external_ref"`
	Email       string          `json:"email"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ItemCount   int             `json:"item_count"`
}

// OrderCompletedData is the payload for a store.order.completed event.
type OrderCompletedData struct {
	ExternalRef    string `json:"external_ref"`
	Email          string `json:"email"`
	PaymentChannel string `json:"payment_channel,omitempty"`
}

// DeliveryGrantedData is the payload for a store.delivery.granted event.
type DeliveryGrantedData struct {
	ExternalRef string `json:"external_ref"`
	Email       string `json:"email"`
	FileID      string `json:"file_id"`
	CatalogID   int    `json:"catalog_id"`
	Granted     bool   `json:"granted"`
}

// Producer publishes storefront domain events to Kafka. Every publish is
// best-effort from the caller's perspective; the flows log failures and
// carry on.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderPlaced publishes a store.order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	data := OrderPlacedData{
		ExternalRef: o.ExternalRef,
		Email:       o.Email,
		Amount:      o.Amount,
		Currency:    o.Currency,
		ItemCount:   len(o.Items),
	}

	event, err := pkgkafka.NewEvent(TopicOrderPlaced, o.ExternalRef, aggregateTypeOrder, source, data)
	if err != nil {
		return fmt.Errorf("create order.placed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderPlaced, event); err != nil {
		return fmt.Errorf("publish order.placed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.placed event",
		slog.String("external_ref", o.ExternalRef),
	)
	return nil
}

// PublishOrderCompleted publishes a store.order.completed event.
func (p *Producer) PublishOrderCompleted(ctx context.Context, externalRef, email, channel string) error {
	data := OrderCompletedData{
		ExternalRef:    externalRef,
		Email:          email,
		PaymentChannel: channel,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCompleted, externalRef, aggregateTypeOrder, source, data)
	if err != nil {
		return fmt.Errorf("create order.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCompleted, event); err != nil {
		return fmt.Errorf("publish order.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.completed event",
		slog.String("external_ref", externalRef),
	)
	return nil
}

// PublishDeliveryGranted publishes a store.delivery.granted event, one per
// delivered file, including grants that fell back to the bare viewer link.
func (p *Producer) PublishDeliveryGranted(ctx context.Context, data DeliveryGrantedData) error {
	event, err := pkgkafka.NewEvent(TopicDeliveryGranted, data.ExternalRef, aggregateTypeDelivery, source, data)
	if err != nil {
		return fmt.Errorf("create delivery.granted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicDeliveryGranted, event); err != nil {
		return fmt.Errorf("publish delivery.granted event: %w", err)
	}
	return nil
}
