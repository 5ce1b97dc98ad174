package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/geloski43/edcommerce/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// DeliveryItem is one purchased item rendered into the delivery email.
type DeliveryItem struct {
	Name string
	Link string
}

// deliveryTemplate renders the single order-delivery email. One message per
// completed order, all items enumerated.
var deliveryTemplate = template.Must(template.New("delivery").Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Your downloads are ready</h2>
    <p>Thanks for your purchase (order {{.OrderRef}}). Your files:</p>
    <ul>
      {{- range .Items}}
      <li><a href="{{.Link}}">{{.Name}}</a></li>
      {{- end}}
    </ul>
    <p>The links open in your browser; access is tied to this email address.</p>
  </body>
</html>`))

// Client sends transactional email through the provider's /emails endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient HTTPDoer
}

// NewClient creates a mail client. from is the fixed sender address.
func NewClient(baseURL, apiKey, from string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: httpClient,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendDelivery sends the order-delivery email enumerating every purchased
// item with its download link.
func (c *Client) SendDelivery(ctx context.Context, to, orderRef string, items []DeliveryItem) error {
	var html bytes.Buffer
	data := struct {
		OrderRef string
		Items    []DeliveryItem
	}{OrderRef: orderRef, Items: items}
	if err := deliveryTemplate.Execute(&html, data); err != nil {
		return fmt.Errorf("render delivery email: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: "Your purchase is ready",
		HTML:    html.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call mail provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "mail")
	}
	return nil
}
