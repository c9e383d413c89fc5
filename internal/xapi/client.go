package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sender delivers statements to a Learning Record Store.
type Sender interface {
	Send(ctx context.Context, statements ...Statement) error
}

// Client posts statements to an LRS over HTTP.
type Client struct {
	endpoint string
	username string
	password string
	http     *http.Client
}

// NewClient creates a Client for cfg. The endpoint must be set.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("LRS endpoint is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/") + "/statements",
		username: cfg.Username,
		password: cfg.Password,
		http:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Send(ctx context.Context, statements ...Statement) error {
	if len(statements) == 0 {
		return nil
	}

	body, err := json.Marshal(statements)
	if err != nil {
		return fmt.Errorf("marshal statements: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Experience-API-Version", Version)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ErrStatus{
		Code:       resp.StatusCode,
		Body:       strings.TrimSpace(string(msg)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter reads a delay-seconds Retry-After header.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Noop discards every statement.
type Noop struct{}

func (Noop) Send(context.Context, ...Statement) error { return nil }

// New creates a Sender from configuration. Without an endpoint it returns
// Noop; otherwise an HTTP client wrapped with retries.
func New(cfg Config) (Sender, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	c, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing LRS client: %w", err)
	}
	return WithRetry(c, cfg.Retry), nil
}
