package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geloski43/edcommerce/internal/cart"
	"github.com/geloski43/edcommerce/internal/domain"
	apperrors "github.com/geloski43/edcommerce/pkg/errors"
	"github.com/geloski43/edcommerce/pkg/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- Cart fakes ---

type memCartRepo struct {
	carts map[string]*domain.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memCartRepo) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	c, ok := r.carts[sessionID]
	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}
	return c, nil
}

func (r *memCartRepo) Save(_ context.Context, c *domain.Cart) error {
	r.carts[c.SessionID] = c
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, sessionID string) error {
	delete(r.carts, sessionID)
	return nil
}

type staticProducts struct{}

func (staticProducts) Products(context.Context) ([]domain.Product, error) {
	return []domain.Product{
		{ID: 1, Name: "ebook", Price: decimal.NewFromInt(20), Kind: domain.ProductDigital, FileID: "f-1"},
		{ID: 2, Name: "sticker", Price: decimal.NewFromInt(10), Kind: domain.ProductPhysical},
	}, nil
}

func newCartRouter() http.Handler {
	svc := cart.NewService(newMemCartRepo(), staticProducts{}, discardLogger())
	h := NewCartHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.UpdateQuantity)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
	return r
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]json.RawMessage {
	t.Helper()
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

// --- Cart handler ---

func TestCartHandler_MissingSessionHeader(t *testing.T) {
	router := newCartRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_GetEmptyCart(t *testing.T) {
	router := newCartRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set(headerSessionID, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data domain.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "sess-1", env.Data.SessionID)
	assert.Empty(t, env.Data.Lines)
}

func TestCartHandler_AddItem(t *testing.T) {
	router := newCartRouter()

	body := bytes.NewBufferString(`{"product_id": 1}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	req.Header.Set(headerSessionID, "sess-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data domain.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data.Lines, 1)
	assert.Equal(t, 1, env.Data.Lines[0].ProductID)
	assert.Equal(t, 1, env.Data.Lines[0].Quantity)
	assert.True(t, env.Data.Lines[0].Digital)
}

func TestCartHandler_AddUnknownProduct(t *testing.T) {
	router := newCartRouter()

	body := bytes.NewBufferString(`{"product_id": 999}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)
	req.Header.Set(headerSessionID, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_InvalidProductIDParam(t *testing.T) {
	router := newCartRouter()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/abc", nil)
	req.Header.Set(headerSessionID, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandler_ClearReturnsNoContent(t *testing.T) {
	router := newCartRouter()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/", nil)
	req.Header.Set(headerSessionID, "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --- Shared secret middleware ---

func TestRequireSharedSecret_RejectsBadToken(t *testing.T) {
	handler := RequireSharedSecret(headerCallbackToken, "top-secret")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", nil)
	req.Header.Set(headerCallbackToken, "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSharedSecret_RejectsWhenUnconfigured(t *testing.T) {
	handler := RequireSharedSecret(headerSyncSecret, "")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/categories", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSharedSecret_AllowsMatch(t *testing.T) {
	handler := RequireSharedSecret(headerSyncSecret, "sync-secret")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/categories", nil)
	req.Header.Set(headerSyncSecret, "sync-secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Session identity middleware ---

type fakeSyncer struct {
	profile *domain.UserProfile
	err     error
}

func (f *fakeSyncer) Sync(context.Context, string) (*domain.UserProfile, error) {
	if f.err != nil {
		return &domain.UserProfile{PurchasedIDs: []int{}}, f.err
	}
	return f.profile, nil
}

func TestSessionIdentity_AnonymousPassesThrough(t *testing.T) {
	syncer := &fakeSyncer{profile: &domain.UserProfile{PurchasedIDs: []int{}}}

	var seen *domain.UserProfile
	handler := SessionIdentity(syncer, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = ProfileFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Empty(t, seen.Email)
}

func TestSessionIdentity_BlockedAccountRedirects(t *testing.T) {
	syncer := &fakeSyncer{err: apperrors.Blocked("/blocked")}

	handler := SessionIdentity(syncer, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("blocked session must not reach the handler")
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var env httputil.Response
	env.Error = &httputil.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "ACCOUNT_BLOCKED", env.Error.Code)
	assert.Equal(t, "/blocked", env.Error.Redirect)
}

func TestSessionIdentity_ProfileReachesHandler(t *testing.T) {
	syncer := &fakeSyncer{profile: &domain.UserProfile{Email: "alice@example.com", PurchasedIDs: []int{7}}}

	var seen *domain.UserProfile
	handler := SessionIdentity(syncer, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = ProfileFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "alice@example.com", seen.Email)
	assert.Equal(t, []int{7}, seen.PurchasedIDs)
}

// --- Content type middleware ---

func TestContentTypeJSON_RejectsFormPost(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestContentTypeJSON_AllowsGetWithoutType(t *testing.T) {
	handler := ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Webhook handler ---

func TestWebhookHandler_RejectsMissingExternalID(t *testing.T) {
	h := NewWebhookHandler(nil, discardLogger())

	body := bytes.NewBufferString(`{"status": "PAID"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", body)
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_RejectsMalformedBody(t *testing.T) {
	h := NewWebhookHandler(nil, discardLogger())

	body := bytes.NewBufferString(`{not json`)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", body)
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Errors surface as envelopes ---

func TestWriteErrorEnvelope_UnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	httputil.WriteError(rec, req, errors.New("boom"), discardLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Contains(t, string(env["error"]), "INTERNAL_ERROR")
}
