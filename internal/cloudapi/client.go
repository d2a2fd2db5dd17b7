package cloudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// tokenHeader carries the API token on every request.
const tokenHeader = "X-YATAI-API-TOKEN"

// User is the identity record returned by the current-user endpoint.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Organization is the account record returned by the current-org endpoint.
type Organization struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// APIError is a non-2xx response from the cloud API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("cloud API error (%d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("cloud API error (%d)", e.StatusCode)
}

// Client talks to a BentoCloud (or Yatai) endpoint using an API token.
type Client struct {
	Endpoint   string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient creates a client bound to endpoint and token. A trailing slash
// on the endpoint is ignored.
func NewClient(endpoint, apiToken string) *Client {
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetCurrentUser fetches the identity the token belongs to. A 404 means the
// server has no user record for this token and is reported as (nil, nil).
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	found, err := c.getJSON(ctx, "/api/v1/auth/current", &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetCurrentOrganization fetches the organization the token belongs to.
// A 404 is reported as (nil, nil), same as GetCurrentUser.
func (c *Client) GetCurrentOrganization(ctx context.Context) (*Organization, error) {
	var org Organization
	found, err := c.getJSON(ctx, "/api/v1/current_org", &org)
	if err != nil || !found {
		return nil, err
	}
	return &org, nil
}

// getJSON performs an authenticated GET and decodes the body into out.
// It returns false without an error when the resource does not exist.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(tokenHeader, c.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		return false, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return true, nil
}
