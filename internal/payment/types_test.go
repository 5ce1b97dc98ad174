package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseItemRef_StructuredMetadataWins(t *testing.T) {
	item := WebhookItem{
		Category: "legacy-file:99",
		Metadata: &ItemMetadata{FileID: "file-abc", CatalogID: 5},
	}

	ref, ok := ParseItemRef(item)
	assert.True(t, ok)
	assert.Equal(t, "file-abc", ref.FileID)
	assert.Equal(t, 5, ref.CatalogID)
}

func TestParseItemRef_LegacyCategoryFallback(t *testing.T) {
	ref, ok := ParseItemRef(WebhookItem{Category: "1AbC_dEf-123:42"})
	assert.True(t, ok)
	assert.Equal(t, "1AbC_dEf-123", ref.FileID)
	assert.Equal(t, 42, ref.CatalogID)
}

func TestParseItemRef_RoundTrip(t *testing.T) {
	encoded := EncodeItemRef("file-xyz", 7)
	ref, ok := ParseItemRef(WebhookItem{Category: encoded})
	assert.True(t, ok)
	assert.Equal(t, ItemRef{FileID: "file-xyz", CatalogID: 7}, ref)
}

func TestParseItemRef_NoUsableReference(t *testing.T) {
	cases := []WebhookItem{
		{},
		{Category: "no-separator"},
		{Category: ":7"},
		{Category: "file:"},
		{Category: "file:not-a-number"},
	}
	for _, item := range cases {
		_, ok := ParseItemRef(item)
		assert.False(t, ok, "category %q", item.Category)
	}
}

func TestWebhookEvent_Channel_FoldsAlternates(t *testing.T) {
	assert.Equal(t, "GCASH", (&WebhookEvent{PaymentChannel: "GCASH"}).Channel())
	assert.Equal(t, "BANK", (&WebhookEvent{PaymentMethod: "BANK"}).Channel())
	assert.Equal(t, "GCASH", (&WebhookEvent{PaymentChannel: "GCASH", PaymentMethod: "BANK"}).Channel())
}

func TestWebhookEvent_IsPaid(t *testing.T) {
	assert.True(t, (&WebhookEvent{Status: "PAID"}).IsPaid())
	assert.False(t, (&WebhookEvent{Status: "EXPIRED"}).IsPaid())
	assert.False(t, (&WebhookEvent{Status: "paid"}).IsPaid())
}
