package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrNotFound   = errors.New("not found")
)

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is matches ErrHTTPStatus for every status and ErrNotFound for 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus || (target == ErrNotFound && e.Code == http.StatusNotFound)
}

// Client fetches JSON documents relative to a base URL.
type Client struct {
	BaseURL      string
	HTTPClient   *http.Client
	MaxBodyBytes int64
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient:   &http.Client{Timeout: cfg.Timeout},
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
}

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Get performs a GET and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	url := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultConfig().Timeout}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultConfig().MaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body %s after %s: %w", url, time.Since(start), err)
	}
	return body, nil
}
