package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a per-session shopping cart. At most one line exists per product
// id; digital lines keep quantity pinned to one.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is a single product entry in the cart.
type CartLine struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Digital   bool            `json:"digital"`
	FileID    string          `json:"file_id,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// FindLine returns the index of the line holding the given product id, or -1.
func (c *Cart) FindLine(productID int) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem appends a line for the product with quantity one. Adding a digital
// product that is already in the cart is a silent no-op; adding a physical
// product that is already present increments its quantity.
func (c *Cart) AddItem(p *Product) {
	if i := c.FindLine(p.ID); i >= 0 {
		if c.Lines[i].Digital {
			return
		}
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
		Digital:   p.IsDigital(),
		FileID:    p.FileID,
		ImageURL:  p.ImageURL,
	})
}

// RemoveItem deletes the line for the product id. A missing line is not an
// error.
func (c *Cart) RemoveItem(productID int) {
	i := c.FindLine(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// UpdateQuantity applies a signed delta to the line's quantity. Positive
// deltas on digital lines are ignored. The quantity never goes negative; a
// line reaching zero is removed.
func (c *Cart) UpdateQuantity(productID, delta int) {
	i := c.FindLine(productID)
	if i < 0 {
		return
	}
	line := &c.Lines[i]
	if line.Digital && delta > 0 {
		return
	}
	line.Quantity += delta
	if line.Quantity <= 0 {
		c.RemoveItem(productID)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Subtotal is the sum of price times quantity over all lines. The result
// does not depend on line ordering.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	var count int
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
