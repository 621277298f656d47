package bizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/visadir/internal/directory"
	"github.com/JonMunkholm/visadir/internal/logging"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single API call when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a failed response body is kept on APIError.
const maxErrorBody = 512

// APIError is returned when the business API answers with a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("business api returned %d", e.Status)
	}
	return fmt.Sprintf("business api returned %d: %s", e.Status, e.Body)
}

// Client talks to the business API over JSON.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. An empty token sends no
// Authorization header. timeout <= 0 uses DefaultTimeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateBusiness submits one record. Any 2xx status is success; the new
// record's ID is logged when the response carries one.
func (c *Client) CreateBusiness(ctx context.Context, rec BusinessRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal business: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/businesses", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	var created CreatedBusiness
	if err := json.NewDecoder(resp.Body).Decode(&created); err == nil && created.ID != "" {
		logging.FromContext(ctx).Debug("business created", "id", created.ID, "name", rec.Name)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ListBusinesses fetches every listing for browsing.
func (c *Client) ListBusinesses(ctx context.Context) ([]directory.Listing, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/businesses", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var listings []directory.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("decode businesses: %w", err)
	}
	return listings, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func readAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
