package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inovacc/drivesign/internal/model"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 64 << 10
)

// options holds the settings shared by every sender.
type options struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
	dialer     mailDialer
}

// Option configures a sender.
type Option func(*options)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithEndpoint overrides the provider base URL, taking precedence over the
// configured one.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithLogger sets the logger used by senders.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMailDialer replaces the SMTP dialer used by the smtp channel.
func WithMailDialer(d mailDialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// client returns the configured HTTP client or a new one with timeout.
func (o options) client(timeout time.Duration) *http.Client {
	if o.httpClient != nil {
		return o.httpClient
	}

	return &http.Client{Timeout: timeout}
}

// baseURL picks the option endpoint, then the configured key, then def.
func (o options) baseURL(cfg model.ChannelConfig, key, def string) string {
	if o.endpoint != "" {
		return strings.TrimRight(o.endpoint, "/")
	}

	if key != "" {
		if v := cfg.Get(key); v != "" {
			return strings.TrimRight(v, "/")
		}
	}

	return strings.TrimRight(def, "/")
}

// response is a raw provider reply.
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// decode unmarshals the body into v.
func (r response) decode(v any) error {
	return json.Unmarshal(r.body, v)
}

func postJSON(ctx context.Context, client *http.Client, channel, target string, payload any, header map[string]string) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range header {
		req.Header.Set(k, v)
	}

	return do(client, channel, req)
}

func postForm(ctx context.Context, client *http.Client, channel, target string, form url.Values) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(client, channel, req)
}

func do(client *http.Client, channel string, req *http.Request) (response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return response{}, &DeliveryError{Channel: channel, Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return response{}, &DeliveryError{Channel: channel, StatusCode: resp.StatusCode, Err: err}
	}

	return response{status: resp.StatusCode, body: body}, nil
}

// rejected builds the DeliveryError for a provider reply that was not accepted.
func rejected(channel string, r response, reason string) error {
	var err error
	if reason != "" {
		err = errors.New(reason)
	}

	return &DeliveryError{Channel: channel, StatusCode: r.status, Body: string(r.body), Err: err}
}
