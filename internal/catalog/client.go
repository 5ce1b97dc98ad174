package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/geloski43/edcommerce/internal/domain"
	"github.com/geloski43/edcommerce/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the headless catalog backend. Collection endpoints return
// a {data: [...]} envelope; /users returns a bare array.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// NewClient creates a catalog client authenticated with a bearer token.
func NewClient(baseURL, token string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var buf *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal catalog request: %w", err)
		}
		buf = bytes.NewReader(data)
	} else {
		buf = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "catalog")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// User is the resolved catalog customer record.
type User struct {
	ID           int
	Email        string
	Blocked      bool
	PurchasedIDs []int
}

// FindUserByEmail looks up a customer by exact email with the purchased
// relation populated. Returns (nil, nil) when no record exists.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	q := url.Values{}
	q.Set("filters[email][$eq]", email)
	q.Set("populate", "purchased")

	req, err := c.newRequest(ctx, http.MethodGet, "/users", q, nil)
	if err != nil {
		return nil, err
	}

	// /users responds with a bare array, not the {data} envelope.
	var records []userRecord
	if err := c.do(ctx, req, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rec := records[0]
	ids := make([]int, 0, len(rec.Purchased))
	for _, p := range rec.Purchased {
		ids = append(ids, p.ID)
	}
	return &User{ID: rec.ID, Email: rec.Email, Blocked: rec.Blocked, PurchasedIDs: ids}, nil
}

// CreateUser registers a customer record for the email.
func (c *Client) CreateUser(ctx context.Context, email string) (*User, error) {
	payload := map[string]any{"email": email, "blocked": false}
	req, err := c.newRequest(ctx, http.MethodPost, "/users", nil, payload)
	if err != nil {
		return nil, err
	}

	var rec userRecord
	if err := c.do(ctx, req, &rec); err != nil {
		return nil, err
	}
	return &User{ID: rec.ID, Email: rec.Email, Blocked: rec.Blocked}, nil
}

// UpdateUserPurchased replaces the customer's purchased relation with the
// given product ids. Callers are responsible for passing the merged set.
func (c *Client) UpdateUserPurchased(ctx context.Context, userID int, productIDs []int) error {
	payload := map[string]any{"purchased": productIDs}
	req, err := c.newRequest(ctx, http.MethodPut, "/users/"+strconv.Itoa(userID), nil, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func orderFromRecord(rec orderRecord) domain.Order {
	o := domain.Order{
		ID:             rec.ID,
		ExternalRef:    rec.ExternalRef,
		Email:          rec.Email,
		UserID:         rec.User,
		Amount:         rec.Amount,
		Currency:       rec.Currency,
		Status:         domain.OrderStatus(rec.Status),
		PaymentChannel: rec.PaymentChannel,
	}
	if rec.PaidAt != nil {
		if t, err := time.Parse(time.RFC3339, *rec.PaidAt); err == nil {
			o.PaidAt = &t
		}
	}
	if rec.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.CreatedAt); err == nil {
			o.CreatedAt = t
		}
	}
	for _, it := range rec.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ID:        it.ID,
			OrderID:   it.Order,
			ProductID: it.Product,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			FileID:    it.FileID,
		})
	}
	return o
}

// CreateOrder creates a pending order and returns its catalog id.
func (c *Client) CreateOrder(ctx context.Context, o *domain.Order) (int, error) {
	rec := orderRecord{
		ExternalRef: o.ExternalRef,
		Email:       o.Email,
		User:        o.UserID,
		Amount:      o.Amount,
		Currency:    o.Currency,
		Status:      string(o.Status),
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/orders", nil, createRequest[orderRecord]{Data: rec})
	if err != nil {
		return 0, err
	}

	var resp entityResponse[orderRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// UpdateOrder applies a partial update to an order.
func (c *Client) UpdateOrder(ctx context.Context, orderID int, fields map[string]any) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/orders/"+strconv.Itoa(orderID), nil, createRequest[map[string]any]{Data: fields})
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// CreateOrderItem attaches one purchased line to an order.
func (c *Client) CreateOrderItem(ctx context.Context, item *domain.OrderItem) (int, error) {
	rec := orderItemRecord{
		Order:    item.OrderID,
		Product:  item.ProductID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: item.Quantity,
		FileID:   item.FileID,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/order-items", nil, createRequest[orderItemRecord]{Data: rec})
	if err != nil {
		return 0, err
	}

	var resp entityResponse[orderItemRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// FindOrderByExternalRef resolves the order carrying the payment correlation
// id. Returns (nil, nil) when no order matches.
func (c *Client) FindOrderByExternalRef(ctx context.Context, ref string) (*domain.Order, error) {
	q := url.Values{}
	q.Set("filters[external_ref][$eq]", ref)
	q.Set("populate", "items")

	req, err := c.newRequest(ctx, http.MethodGet, "/orders", q, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[orderRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	o := orderFromRecord(resp.Data[0])
	return &o, nil
}

// FindOrdersByEmail returns all orders for the email, items populated.
func (c *Client) FindOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	q := url.Values{}
	q.Set("filters[email][$eq]", email)
	q.Set("populate", "items")

	req, err := c.newRequest(ctx, http.MethodGet, "/orders", q, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[orderRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(resp.Data))
	for _, rec := range resp.Data {
		orders = append(orders, orderFromRecord(rec))
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// Products, categories, currencies
// ---------------------------------------------------------------------------

// Products lists all published products.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/products", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[productRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.Data))
	for _, rec := range resp.Data {
		products = append(products, rec.toDomain())
	}
	return products, nil
}

// ProductByFileID finds the product delivered from the given storage file.
// Returns (nil, nil) when no product matches.
func (c *Client) ProductByFileID(ctx context.Context, fileID string) (*domain.Product, error) {
	q := url.Values{}
	q.Set("filters[file_id][$eq]", fileID)

	req, err := c.newRequest(ctx, http.MethodGet, "/products", q, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[productRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	p := resp.Data[0].toDomain()
	return &p, nil
}

// CreateDraftProduct registers an unpublished digital product for a storage
// file discovered during sync.
func (c *Client) CreateDraftProduct(ctx context.Context, name, fileID, category, subCategory string) (int, error) {
	rec := map[string]any{
		"name":         name,
		"type":         "digital",
		"file_id":      fileID,
		"category":     category,
		"sub_category": subCategory,
		"price":        decimal.Zero,
		"publishedAt":  nil,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/products", nil, createRequest[map[string]any]{Data: rec})
	if err != nil {
		return 0, err
	}

	var resp entityResponse[productRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// Categories lists all catalog categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[categoryRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	cats := make([]domain.Category, 0, len(resp.Data))
	for _, rec := range resp.Data {
		cats = append(cats, domain.Category{ID: rec.ID, Name: rec.Name, FolderID: rec.FolderID})
	}
	return cats, nil
}

// CreateCategory registers a category discovered during sync.
func (c *Client) CreateCategory(ctx context.Context, name, folderID string) (int, error) {
	rec := categoryRecord{Name: name, FolderID: folderID}
	req, err := c.newRequest(ctx, http.MethodPost, "/categories", nil, createRequest[categoryRecord]{Data: rec})
	if err != nil {
		return 0, err
	}

	var resp entityResponse[categoryRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// SubCategories lists all catalog sub-categories.
func (c *Client) SubCategories(ctx context.Context) ([]domain.SubCategory, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/sub-categories", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[subCategoryRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	subs := make([]domain.SubCategory, 0, len(resp.Data))
	for _, rec := range resp.Data {
		subs = append(subs, domain.SubCategory{ID: rec.ID, Name: rec.Name, Category: rec.Category, FolderID: rec.FolderID})
	}
	return subs, nil
}

// CreateSubCategory registers a sub-category discovered during sync.
func (c *Client) CreateSubCategory(ctx context.Context, name, category, folderID string) (int, error) {
	rec := subCategoryRecord{Name: name, Category: category, FolderID: folderID}
	req, err := c.newRequest(ctx, http.MethodPost, "/sub-categories", nil, createRequest[subCategoryRecord]{Data: rec})
	if err != nil {
		return 0, err
	}

	var resp entityResponse[subCategoryRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return 0, err
	}
	return resp.Data.ID, nil
}

// Currencies lists the display currency configs.
func (c *Client) Currencies(ctx context.Context) ([]domain.CurrencyConfig, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/currencies", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp collectionResponse[currencyRecord]
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	configs := make([]domain.CurrencyConfig, 0, len(resp.Data))
	for _, rec := range resp.Data {
		configs = append(configs, rec.toDomain())
	}
	return configs, nil
}
