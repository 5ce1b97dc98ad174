package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", httpclient.New(httpclient.DefaultConfig()))
}

func TestFindUserByEmail_BareArrayResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "alice@example.com", r.URL.Query().Get("filters[email][$eq]"))
		assert.Equal(t, "purchased", r.URL.Query().Get("populate"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		// /users responds with a bare array, no {data} envelope.
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":      7,
				"email":   "alice@example.com",
				"blocked": false,
				"purchased": []map[string]any{
					{"id": 1, "name": "ebook", "price": "20"},
					{"id": 3, "name": "course", "price": "50"},
				},
			},
		})
	})

	user, err := c.FindUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, 7, user.ID)
	assert.False(t, user.Blocked)
	assert.Equal(t, []int{1, 3}, user.PurchasedIDs)
}

func TestFindUserByEmail_NoRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{})
	})

	user, err := c.FindUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFindOrderByExternalRef_EnvelopeResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "order-1700000000000", r.URL.Query().Get("filters[external_ref][$eq]"))
		assert.Equal(t, "items", r.URL.Query().Get("populate"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":           12,
					"external_ref": "order-1700000000000",
					"email":        "alice@example.com",
					"amount":       "2320.00",
					"currency":     "PHP",
					"status":       "pending",
					"items": []map[string]any{
						{"id": 1, "product": 5, "name": "ebook", "price": "20", "quantity": 1},
					},
				},
			},
		})
	})

	order, err := c.FindOrderByExternalRef(context.Background(), "order-1700000000000")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 12, order.ID)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].ProductID)
}

func TestFindOrderByExternalRef_NoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	order, err := c.FindOrderByExternalRef(context.Background(), "order-unknown")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestCreateOrder_WrapsPayloadInDataEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasData := body["data"]
		assert.True(t, hasData)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": 42}})
	})

	order := pendingOrderFixture()
	id, err := c.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func pendingOrderFixture() *domain.Order {
	return &domain.Order{
		ExternalRef: "order-1700000000000",
		Email:       "alice@example.com",
		Amount:      decimal.RequireFromString("2320.00"),
		Currency:    "PHP",
		Status:      domain.OrderPending,
	}
}

func TestClient_DownstreamErrorMapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "no such collection"})
	})

	_, err := c.Currencies(context.Background())
	require.Error(t, err)
}
