// Package apiclient is a small JSON client for the hifi-api REST service
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Config holds client configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration // Request timeout
	RetryAttempts int           // Retries on transport errors and 5xx
	RetryBackoff  time.Duration
}

// DefaultConfig returns the configuration for a local hifi-api
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "http://localhost:8080",
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryBackoff:  200 * time.Millisecond,
	}
}

// Error is a non-2xx response from the service
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks JSON to the REST service
type Client struct {
	config *Config
	http   *http.Client

	// Metrics
	requestCount uint64
	failCount    uint64
}

// NewClient creates a client; a nil config uses DefaultConfig
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

// Get fetches path and decodes the JSON body into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	bz, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bz, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	atomic.AddUint64(&c.requestCount, 1)

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		retry, err := c.once(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	atomic.AddUint64(&c.failCount, 1)
	return lastErr
}

func (c *Client) once(ctx context.Context, method, path string, body []byte, out interface{}) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, err
	}
	if resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return resp.StatusCode >= 500, apiErr
	}
	if out == nil || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

// GetMetrics returns request statistics
func (c *Client) GetMetrics() (requests, failures uint64) {
	return atomic.LoadUint64(&c.requestCount), atomic.LoadUint64(&c.failCount)
}
