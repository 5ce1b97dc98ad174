package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func digitalProduct(id int) *Product {
	return &Product{
		ID:     id,
		Name:   "ebook",
		Price:  decimal.NewFromInt(20),
		Kind:   ProductDigital,
		FileID: "file-abc",
	}
}

func physicalProduct(id int) *Product {
	return &Product{
		ID:    id,
		Name:  "sticker pack",
		Price: decimal.NewFromInt(10),
		Kind:  ProductPhysical,
	}
}

// ============================================================================
// Cart.AddItem Tests
// ============================================================================

func TestAddItem_NewLine(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].Digital)
	assert.Equal(t, "file-abc", c.Lines[0].FileID)
}

func TestAddItem_DigitalRepeatIsNoOp(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))
	c.AddItem(digitalProduct(1))
	c.AddItem(digitalProduct(1))

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestAddItem_PhysicalRepeatIncrements(t *testing.T) {
	c := &Cart{}
	for i := 0; i < 4; i++ {
		c.AddItem(physicalProduct(2))
	}

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestAddItem_OneLinePerProduct(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))
	c.AddItem(physicalProduct(2))
	c.AddItem(physicalProduct(2))

	assert.Len(t, c.Lines, 2)
}

// ============================================================================
// Cart.RemoveItem Tests
// ============================================================================

func TestRemoveItem_Existing(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))
	c.AddItem(physicalProduct(2))

	c.RemoveItem(1)

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].ProductID)
}

func TestRemoveItem_AbsentIsNotAnError(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))

	c.RemoveItem(99)

	assert.Len(t, c.Lines, 1)
}

// ============================================================================
// Cart.UpdateQuantity Tests
// ============================================================================

func TestUpdateQuantity_PositiveDeltaOnDigitalIgnored(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))

	c.UpdateQuantity(1, 3)

	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestUpdateQuantity_NegativeDeltaOnDigitalRemoves(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))

	c.UpdateQuantity(1, -1)

	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantity_PhysicalDelta(t *testing.T) {
	c := &Cart{}
	c.AddItem(physicalProduct(2))
	c.UpdateQuantity(2, 4)

	assert.Equal(t, 5, c.Lines[0].Quantity)

	c.UpdateQuantity(2, -3)
	assert.Equal(t, 2, c.Lines[0].Quantity)
}

func TestUpdateQuantity_NeverGoesNegative(t *testing.T) {
	c := &Cart{}
	c.AddItem(physicalProduct(2))

	c.UpdateQuantity(2, -10)

	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantity_UnknownProductIsNoOp(t *testing.T) {
	c := &Cart{}
	c.AddItem(physicalProduct(2))

	c.UpdateQuantity(77, 1)

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

// ============================================================================
// Cart.Subtotal Tests
// ============================================================================

func TestSubtotal_SumOfLines(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1)) // 20 x 1
	c.AddItem(physicalProduct(2))
	c.AddItem(physicalProduct(2)) // 10 x 2

	assert.True(t, decimal.NewFromInt(40).Equal(c.Subtotal()))
}

func TestSubtotal_OrderInvariant(t *testing.T) {
	a := &Cart{}
	a.AddItem(digitalProduct(1))
	a.AddItem(physicalProduct(2))

	b := &Cart{}
	b.AddItem(physicalProduct(2))
	b.AddItem(digitalProduct(1))

	assert.True(t, a.Subtotal().Equal(b.Subtotal()))
}

func TestSubtotal_EmptyCart(t *testing.T) {
	c := &Cart{}
	assert.True(t, decimal.Zero.Equal(c.Subtotal()))
}

// ============================================================================
// Cart.Clear Tests
// ============================================================================

func TestClear(t *testing.T) {
	c := &Cart{}
	c.AddItem(digitalProduct(1))
	c.AddItem(physicalProduct(2))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.ItemCount())
}
