package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/geloski43/edcommerce/pkg/httpclient"
)

// FolderMimeType marks folder entries in file listings.
const FolderMimeType = "application/vnd.google-apps.folder"

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// File is one entry in a storage folder listing.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// IsFolder reports whether the entry is a folder.
func (f File) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

// Client talks to the Drive-style file storage API. It grants per-file
// reader permissions for delivered purchases and walks the folder tree for
// catalog sync.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPDoer
}

// NewClient creates a storage client authenticated with a bearer token.
func NewClient(baseURL, token string, httpClient HTTPDoer) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

// GrantReader gives the email read access to the file.
func (c *Client) GrantReader(ctx context.Context, fileID, email string) error {
	payload := map[string]string{
		"role":         "reader",
		"type":         "user",
		"emailAddress": email,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal permission request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/files/"+url.PathEscape(fileID)+"/permissions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create permission request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call file storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "filestore")
	}
	return nil
}

// ViewerLink returns the browser URL for a file. The link resolves for
// anyone the file has been shared with; it is safe to send before the grant
// succeeds.
func (c *Client) ViewerLink(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}

// ListFolder returns the direct children of a folder.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]File, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	q.Set("fields", "files(id, name, mimeType)")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call file storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "filestore")
	}

	var listing struct {
		Files []File `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return listing.Files, nil
}
