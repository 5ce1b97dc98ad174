package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/geloski43/edcommerce/internal/catalog"
	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/internal/payment"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
)

// maxConcurrentItemWrites bounds the parallel order-item creation fan-out.
const maxConcurrentItemWrites = 4

// CatalogAPI is the slice of the catalog client the sequencer uses.
type CatalogAPI interface {
	FindUserByEmail(ctx context.Context, email string) (*catalog.User, error)
	CreateOrder(ctx context.Context, o *domain.Order) (int, error)
	UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) (int, error)
}

// InvoiceAPI is the slice of the payment client the sequencer uses.
type InvoiceAPI interface {
	CreateInvoice(ctx context.Context, in *payment.CreateInvoiceRequest) (*payment.Invoice, error)
}

// Mirror supplies canonical products and currency configs.
type Mirror interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Currencies(ctx context.Context) ([]domain.CurrencyConfig, error)
}

// EventPublisher publishes order lifecycle events.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *domain.Order) error
}

// Config carries the redirect targets stamped onto every invoice.
type Config struct {
	SuccessRedirectURL string
	FailureRedirectURL string
	Description        string
}

// Service sequences order placement: pending catalog order, order items,
// provider invoice, in that fixed order.
type Service struct {
	catalog  CatalogAPI
	invoices InvoiceAPI
	mirror   Mirror
	events   EventPublisher
	cfg      Config
	logger   *slog.Logger
	nowFunc  func() time.Time // injectable clock for testing
}

// NewService creates an order placement sequencer.
func NewService(catalogAPI CatalogAPI, invoices InvoiceAPI, mirror Mirror, events EventPublisher, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		catalog:  catalogAPI,
		invoices: invoices,
		mirror:   mirror,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// LineInput is one cart line submitted for checkout.
type LineInput struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderInput is the checkout request. Amount, when sent by the client,
// is re-validated against the server-side computation and never trusted.
type PlaceOrderInput struct {
	Email    string           `json:"email" validate:"required,email"`
	Currency string           `json:"currency" validate:"required,len=3"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Lines    []LineInput      `json:"lines" validate:"required,min=1,dive"`
}

// PlaceOrderResult is what the storefront needs to hand control to the
// hosted invoice page.
type PlaceOrderResult struct {
	ExternalRef string `json:"external_ref"`
	InvoiceURL  string `json:"invoice_url"`
	OrderID     int    `json:"order_id"`
}

// PlaceOrder runs the placement sequence and returns the hosted invoice URL.
//
// Order items are created concurrently; a failed item is logged and never
// aborts its siblings. An invoice failure voids the just-created pending
// order (best effort) and surfaces a single generic payment error.
func (s *Service) PlaceOrder(ctx context.Context, input *PlaceOrderInput) (*PlaceOrderResult, error) {
	if input == nil || len(input.Lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}

	externalRef := fmt.Sprintf("order-%d", s.nowFunc().UnixMilli())

	lines, amount, err := s.priceLines(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.Amount != nil && !input.Amount.Equal(amount) {
		s.logger.WarnContext(ctx, "client amount mismatch, using server computation",
			slog.String("external_ref", externalRef),
			slog.String("client_amount", input.Amount.String()),
			slog.String("computed_amount", amount.String()),
		)
	}

	// Catalog user resolution is tolerated-absent: a guest checkout still
	// places an order.
	userID := 0
	if user, err := s.catalog.FindUserByEmail(ctx, input.Email); err != nil {
		s.logger.WarnContext(ctx, "user lookup failed, placing order without user link",
			slog.String("external_ref", externalRef),
			slog.String("error", err.Error()),
		)
	} else if user != nil {
		userID = user.ID
	}

	order := &domain.Order{
		ExternalRef: externalRef,
		Email:       input.Email,
		UserID:      userID,
		Amount:      amount,
		Currency:    input.Currency,
		Status:      domain.OrderPending,
	}

	orderID, err := s.catalog.CreateOrder(ctx, order)
	if err != nil {
		s.logger.ErrorContext(ctx, "pending order creation failed",
			slog.String("external_ref", externalRef),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentFailed("order could not be placed")
	}
	order.ID = orderID

	s.createItems(ctx, orderID, externalRef, lines)
	order.Items = lines

	invoice, err := s.invoices.CreateInvoice(ctx, s.invoiceRequest(externalRef, input, amount, lines))
	if err != nil {
		s.logger.ErrorContext(ctx, "invoice creation failed, voiding pending order",
			slog.String("external_ref", externalRef),
			slog.Int("order_id", orderID),
			slog.String("error", err.Error()),
		)
		// Compensate best-effort; a failed void leaves a pending order that
		// never settles.
		if err := s.catalog.UpdateOrder(ctx, orderID, map[string]any{"status": string(domain.OrderVoided)}); err != nil {
			s.logger.ErrorContext(ctx, "compensating void failed",
				slog.Int("order_id", orderID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.PaymentFailed("order could not be placed")
	}

	if err := s.events.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("external_ref", externalRef),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("external_ref", externalRef),
		slog.Int("order_id", orderID),
		slog.String("amount", amount.String()),
		slog.String("currency", input.Currency),
	)

	return &PlaceOrderResult{
		ExternalRef: externalRef,
		InvoiceURL:  invoice.InvoiceURL,
		OrderID:     orderID,
	}, nil
}

// priceLines resolves every submitted line against the canonical catalog and
// computes the display-currency total: sum(price x qty) x rate.
func (s *Service) priceLines(ctx context.Context, input *PlaceOrderInput) ([]domain.OrderItem, decimal.Decimal, error) {
	products, err := s.mirror.Products(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	currencies, err := s.mirror.Currencies(ctx)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load currencies: %w", err)
	}
	var cfg *domain.CurrencyConfig
	for i := range currencies {
		if currencies[i].Code == input.Currency {
			cfg = &currencies[i]
			break
		}
	}
	if cfg == nil {
		return nil, decimal.Zero, apperrors.InvalidInput("unknown currency " + input.Currency)
	}

	lines := make([]domain.OrderItem, 0, len(input.Lines))
	subtotal := decimal.Zero
	for _, in := range input.Lines {
		p, ok := byID[in.ProductID]
		if !ok {
			return nil, decimal.Zero, apperrors.NotFound("product", fmt.Sprintf("%d", in.ProductID))
		}
		qty := in.Quantity
		if p.IsDigital() {
			qty = 1
		}
		lines = append(lines, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			FileID:    p.FileID,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
	}

	amount := subtotal.Mul(cfg.Rate).Round(int32(cfg.Precision))
	return lines, amount, nil
}

// createItems attaches order items concurrently. Failures are logged per
// item and never abort the siblings or the placement.
func (s *Service) createItems(ctx context.Context, orderID int, externalRef string, lines []domain.OrderItem) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentItemWrites)

	for i := range lines {
		item := lines[i]
		item.OrderID = orderID
		g.Go(func() error {
			if _, err := s.catalog.CreateOrderItem(ctx, &item); err != nil {
				s.logger.ErrorContext(ctx, "order item creation failed",
					slog.String("external_ref", externalRef),
					slog.Int("product_id", item.ProductID),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}

func (s *Service) invoiceRequest(externalRef string, input *PlaceOrderInput, amount decimal.Decimal, lines []domain.OrderItem) *payment.CreateInvoiceRequest {
	items := make([]payment.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		item := payment.InvoiceItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		}
		if line.FileID != "" {
			item.Category = payment.EncodeItemRef(line.FileID, line.ProductID)
			item.Metadata = &payment.ItemMetadata{FileID: line.FileID, CatalogID: line.ProductID}
		}
		items = append(items, item)
	}

	return &payment.CreateInvoiceRequest{
		ExternalID:         externalRef,
		Amount:             amount,
		PayerEmail:         input.Email,
		Currency:           input.Currency,
		Description:        s.cfg.Description,
		SuccessRedirectURL: s.cfg.SuccessRedirectURL,
		FailureRedirectURL: s.cfg.FailureRedirectURL,
		Items:              items,
	}
}
