package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a catalog order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderVoided    OrderStatus = "voided"
)

// Order is a catalog order record. ExternalRef is the correlation id shared
// with the payment provider's invoice.
type Order struct {
	ID             int             `json:"id"`
	ExternalRef    string          `json:"external_ref"`
	Email          string          `json:"email"`
	UserID         int             `json:"user_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         OrderStatus     `json:"status"`
	PaymentChannel string          `json:"payment_channel,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	Items          []OrderItem     `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty"`
}

// OrderItem is a single purchased line attached to an order.
type OrderItem struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	FileID    string          `json:"file_id,omitempty"`
}
