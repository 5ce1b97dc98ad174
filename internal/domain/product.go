package domain

import "github.com/shopspring/decimal"

// ProductKind distinguishes digital downloads from physical stock.
type ProductKind string

const (
	ProductDigital  ProductKind = "digital"
	ProductPhysical ProductKind = "physical"
)

// Product is a catalog product as the storefront sees it. Price is the
// canonical base-currency price; display conversion happens in the currency
// package.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Kind        ProductKind     `json:"kind"`
	FileID      string          `json:"file_id,omitempty"`
	Category    string          `json:"category,omitempty"`
	SubCategory string          `json:"sub_category,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Draft       bool            `json:"draft,omitempty"`
}

// IsDigital reports whether the product is a digital download. Digital
// products are delivered by file permission grant and carry a pinned cart
// quantity of one.
func (p *Product) IsDigital() bool {
	return p.Kind == ProductDigital
}

// Category represents a top-level catalog category mirrored from the
// file-storage folder tree.
type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FolderID string `json:"folder_id,omitempty"`
}

// SubCategory represents a second-level catalog grouping.
type SubCategory struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	FolderID string `json:"folder_id,omitempty"`
}
