package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the verification endpoint over HTTP. It is the remote
// counterpart of Service.Check for processes that do not hold a database
// connection.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the given API base URL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// VerifyAdmin asks the endpoint whether the token's user is an
// administrator. Unexpected statuses are errors; the caller decides what an
// error means (the checker resolves it to not-admin).
func (c *Client) VerifyAdmin(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/verify-admin", nil)
	if err != nil {
		return false, fmt.Errorf("admin: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("admin: verify request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		var body verifyResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("admin: decode response: %w", err)
		}
		return body.IsAdmin, nil
	default:
		return false, fmt.Errorf("admin: unexpected status %d", res.StatusCode)
	}
}
