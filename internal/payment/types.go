package payment

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceItem is one line on a provider invoice. Metadata carries the
// structured delivery reference; Category keeps the legacy colon-delimited
// encoding for older webhook consumers.
type InvoiceItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
	Metadata *ItemMetadata   `json:"metadata,omitempty"`
}

// ItemMetadata is the structured delivery reference attached to an invoice
// item: which storage file to grant and which catalog product was bought.
type ItemMetadata struct {
	FileID    string `json:"file_id"`
	CatalogID int    `json:"catalog_id"`
}

// ItemRef identifies the delivery target decoded from a webhook item.
type ItemRef struct {
	FileID    string
	CatalogID int
}

// EncodeItemRef renders the legacy colon-delimited category value.
func EncodeItemRef(fileID string, catalogID int) string {
	return fileID + ":" + strconv.Itoa(catalogID)
}

// ParseItemRef decodes a webhook item's delivery reference. Structured
// metadata wins; the colon-delimited category encoding is the fallback.
// ok is false when the item carries no usable reference.
func ParseItemRef(item WebhookItem) (ref ItemRef, ok bool) {
	if item.Metadata != nil && item.Metadata.FileID != "" {
		return ItemRef{FileID: item.Metadata.FileID, CatalogID: item.Metadata.CatalogID}, true
	}

	// Legacy encoding: "<fileID>:<catalogID>". File ids never contain a
	// colon, so the last separator splits the pair.
	i := strings.LastIndex(item.Category, ":")
	if i <= 0 || i == len(item.Category)-1 {
		return ItemRef{}, false
	}
	id, err := strconv.Atoi(item.Category[i+1:])
	if err != nil {
		return ItemRef{}, false
	}
	return ItemRef{FileID: item.Category[:i], CatalogID: id}, true
}

// CreateInvoiceRequest is the provider's invoice creation payload.
type CreateInvoiceRequest struct {
	ExternalID         string          `json:"external_id"`
	Amount             decimal.Decimal `json:"amount"`
	PayerEmail         string          `json:"payer_email"`
	Currency           string          `json:"currency"`
	Description        string          `json:"description"`
	SuccessRedirectURL string          `json:"success_redirect_url"`
	FailureRedirectURL string          `json:"failure_redirect_url"`
	Items              []InvoiceItem   `json:"items"`
}

// Invoice is the provider's created-invoice response.
type Invoice struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

// WebhookItem mirrors InvoiceItem as echoed back in webhook deliveries.
type WebhookItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
	Metadata *ItemMetadata   `json:"metadata,omitempty"`
}

// WebhookEvent is the provider's payment-status callback payload.
// PaymentChannel and PaymentMethod are alternates; Channel() folds them.
type WebhookEvent struct {
	ID             string        `json:"id"`
	ExternalID     string        `json:"external_id"`
	Status         string        `json:"status"`
	PaidAt         string        `json:"paid_at,omitempty"`
	PaymentChannel string        `json:"payment_channel,omitempty"`
	PaymentMethod  string        `json:"payment_method,omitempty"`
	PayerEmail     string        `json:"payer_email"`
	Items          []WebhookItem `json:"items"`
}

// StatusPaid is the only webhook status that triggers fulfillment.
const StatusPaid = "PAID"

// IsPaid reports whether the event settles the invoice.
func (e *WebhookEvent) IsPaid() bool {
	return e.Status == StatusPaid
}

// Channel returns the settlement channel, whichever field the provider sent.
func (e *WebhookEvent) Channel() string {
	if e.PaymentChannel != "" {
		return e.PaymentChannel
	}
	return e.PaymentMethod
}
