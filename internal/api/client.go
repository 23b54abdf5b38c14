// Package api is a thin HTTP client for the Billed REST backend.
//
// Every verb performs exactly one request against the configured base URL and
// returns the raw JSON body. Non-2xx responses become *Error values carrying
// the backend's message. There is no retry and no caching: retry policy
// belongs to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Luca-B431/bill-app/internal/metrics"
)

// MaxResponseSize bounds how much of a response body is read.
const MaxResponseSize int64 = 32 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend root (e.g., "http://localhost:5678").
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Metrics records call counts and latency. May be nil.
	Metrics *metrics.Metrics
}

// Request describes one call. URL is relative to the base URL and must start
// with a slash.
type Request struct {
	URL    string
	Body   []byte
	Header http.Header
}

// Client performs requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a Client for the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		metrics:    config.Metrics,
	}, nil
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, req)
}

// Post performs a POST request with req.Body.
func (c *Client) Post(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, req)
}

// Patch performs a PATCH request with req.Body.
func (c *Client) Patch(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPatch, req)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, req Request) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, req)
}

// Do performs one request and returns the JSON response body.
// An empty 2xx body is returned as JSON null.
func (c *Client) Do(ctx context.Context, method string, req Request) (json.RawMessage, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("api: building %s %s: %w", method, req.URL, err)
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveAPI(method, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("api: %s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("api: reading %s %s response: %w", method, req.URL, err)
	}

	c.logger.Debug("API call",
		"method", method,
		"url", req.URL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("api: %s %s returned status %d: %w", method, req.URL, resp.StatusCode, ErrUnreadableBody)
	}
	return json.RawMessage(data), nil
}

// decodeError turns an error response into an *Error. A body that is not a
// JSON object is reported as ErrUnreadableBody rather than swallowed.
func decodeError(status int, data []byte) error {
	apiErr := &Error{StatusCode: status}
	if err := json.Unmarshal(data, apiErr); err != nil {
		return fmt.Errorf("api: status %d: %w: %v", status, ErrUnreadableBody, err)
	}
	return apiErr
}
