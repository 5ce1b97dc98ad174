package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/geloski43/edcommerce/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the payment invoicing provider. Authentication is HTTP
// Basic with the secret key as the username and an empty password.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient HTTPDoer
}

// NewClient creates an invoicing client.
func NewClient(baseURL, secretKey string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: httpClient,
	}
}

// CreateInvoice creates a hosted invoice and returns it. The invoice's
// external id doubles as the order correlation id.
func (c *Client) CreateInvoice(ctx context.Context, in *CreateInvoiceRequest) (*Invoice, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create invoice request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call invoice provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "invoices")
	}

	var invoice Invoice
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, fmt.Errorf("decode invoice response: %w", err)
	}
	return &invoice, nil
}

// ExpireInvoice voids a not-yet-paid invoice. Used as the compensating
// action when order placement fails after the invoice was requested.
func (c *Client) ExpireInvoice(ctx context.Context, invoiceID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices/"+invoiceID+"/expire!", http.NoBody)
	if err != nil {
		return fmt.Errorf("create expire request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call invoice provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "invoices")
	}
	return nil
}
