// Package drive talks to the cloud drive account and member APIs: it exchanges
// refresh tokens for access tokens and performs the daily sign-in.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultAuthURL   = "https://auth.aliyundrive.com/v2/account/token"
	defaultSignInURL = "https://member.aliyundrive.com/v1/activity/sign_in_list"

	// maxBodySize caps how much of an upstream response is read.
	maxBodySize = 1 << 20
)

// Client calls the upstream drive APIs.
type Client struct {
	authURL    string
	signInURL  string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAuthURL overrides the token exchange endpoint.
func WithAuthURL(u string) Option {
	return func(c *Client) {
		c.authURL = u
	}
}

// WithSignInURL overrides the sign-in endpoint.
func WithSignInURL(u string) Option {
	return func(c *Client) {
		c.signInURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new drive API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		authURL:   defaultAuthURL,
		signInURL: defaultSignInURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// postJSON sends payload as JSON and returns the status code and raw body.
func (c *Client) postJSON(ctx context.Context, op, url string, payload any, header http.Header) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &UpstreamError{Operation: op, Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &UpstreamError{Operation: op, StatusCode: resp.StatusCode, Err: err}
	}

	return resp.StatusCode, respBody, nil
}
