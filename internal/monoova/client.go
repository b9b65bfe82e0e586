// Package monoova is a thin client for the Monoova payments REST API.
//
// Responses are passed through as raw JSON; this package does not model
// provider payloads.
package monoova

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paydesk/internal/config"
	"paydesk/internal/metrics"
)

// Provider is the set of provider operations the HTTP handlers use.
type Provider interface {
	StatusByDate(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
	StatusByReference(ctx context.Context, uniqueReference string) (json.RawMessage, error)
	ValidateTransaction(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	Ping(ctx context.Context) (json.RawMessage, error)
}

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 4 << 20

// Client calls one Monoova environment. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	label   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithLabel sets the mode label reported in metrics.
func WithLabel(label string) Option { return func(c *Client) { c.label = label } }

// NewClient returns a client for creds. timeout bounds each call; zero
// means 15s.
func NewClient(creds config.ProviderCredentials, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(creds.BaseURL, "/"),
		apiKey:  creds.APIKey,
		label:   "live",
		http:    &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the provider base URL with no trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) StatusByDate(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	p := "/financial/v2/status/" + url.PathEscape(startDate) + "/" + url.PathEscape(endDate)
	return c.do(ctx, "status_by_date", http.MethodGet, p, nil)
}

func (c *Client) StatusByReference(ctx context.Context, uniqueReference string) (json.RawMessage, error) {
	return c.do(ctx, "status_by_reference", http.MethodGet, "/financial/v2/status/"+url.PathEscape(uniqueReference), nil)
}

func (c *Client) ValidateTransaction(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, "validate_transaction", http.MethodPost, "/financial/v2/transaction/validate", body)
}

func (c *Client) Ping(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, "ping", http.MethodGet, "/public/v1/ping", nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (out json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ProviderDuration.WithLabelValues(c.label, op, outcome).Observe(time.Since(start).Seconds())
	}()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("monoova %s: %w", op, err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monoova %s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("monoova %s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Operation: op, StatusCode: resp.StatusCode, Body: raw}
	}
	return asJSON(raw), nil
}

// asJSON returns raw unchanged when it is a JSON document and a JSON string
// holding it otherwise. An empty body becomes null.
func asJSON(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	b, _ := json.Marshal(string(raw))
	return b
}
