package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/geloski43/edcommerce/internal/domain"
)

// collectionResponse is the envelope every catalog collection returns except
// /users, which responds with a bare array.
type collectionResponse[T any] struct {
	Data []T `json:"data"`
}

type entityResponse[T any] struct {
	Data T `json:"data"`
}

// createRequest wraps a write payload the way the catalog expects it.
type createRequest[T any] struct {
	Data T `json:"data"`
}

// productRecord is the catalog wire shape for a product.
type productRecord struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        string          `json:"type"`
	FileID      string          `json:"file_id"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category"`
	ImageURL    string          `json:"image_url"`
	PublishedAt *string         `json:"publishedAt"`
}

func (p productRecord) toDomain() domain.Product {
	kind := domain.ProductPhysical
	if p.Type == "digital" {
		kind = domain.ProductDigital
	}
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Kind:        kind,
		FileID:      p.FileID,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		ImageURL:    p.ImageURL,
		Draft:       p.PublishedAt == nil,
	}
}

// userRecord is the catalog wire shape for a customer. The purchased relation
// is only present when the query asks for it via populate.
type userRecord struct {
	ID        int             `json:"id"`
	Email     string          `json:"email"`
	Blocked   bool            `json:"blocked"`
	Purchased []productRecord `json:"purchased"`
}

// orderRecord is the catalog wire shape for an order.
type orderRecord struct {
	ID             int               `json:"id"`
	ExternalRef    string            `json:"external_ref"`
	Email          string            `json:"email"`
	User           int               `json:"user,omitempty"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	PaymentChannel string            `json:"payment_channel,omitempty"`
	PaidAt         *string           `json:"paid_at,omitempty"`
	Items          []orderItemRecord `json:"items,omitempty"`
	CreatedAt      string            `json:"createdAt,omitempty"`
}

type orderItemRecord struct {
	ID       int             `json:"id"`
	Order    int             `json:"order,omitempty"`
	Product  int             `json:"product,omitempty"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	FileID   string          `json:"file_id,omitempty"`
}

type categoryRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FolderID string `json:"folder_id"`
}

type subCategoryRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	FolderID string `json:"folder_id"`
}

type currencyRecord struct {
	ID        int             `json:"id"`
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	Precision int             `json:"precision"`
	Default   bool            `json:"default"`
}

func (c currencyRecord) toDomain() domain.CurrencyConfig {
	return domain.CurrencyConfig{
		ID:        c.ID,
		Code:      c.Code,
		Rate:      c.Rate,
		Precision: c.Precision,
		Default:   c.Default,
	}
}
