// Package fetch is a small JSON-over-HTTP client shared by the upstream API
// providers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "guessart/1.0"
	maxBodyBytes     = 4 << 20
)

// NetworkError is returned when the upstream answers with a non-2xx status.
type NetworkError struct {
	Status int
	Body   string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// ParseError is returned when a response body is not JSON or lacks a field
// the caller depends on.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse response: " + e.Reason
	}
	return fmt.Sprintf("parse response: %s: %s", e.Path, e.Reason)
}

// IsNotFound reports whether err carries a 404 from the upstream.
func IsNotFound(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr) && netErr.Status == http.StatusNotFound
}

// Client issues GET requests and returns parsed JSON documents.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchJSON performs a GET against url. A non-2xx status yields a
// *NetworkError carrying the raw body; a body that is not valid JSON yields a
// *ParseError.
func (c *Client) FetchJSON(ctx context.Context, url string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &NetworkError{Status: resp.StatusCode, Body: string(body)}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ParseError{Reason: "body is not valid JSON"}
	}
	return gjson.ParseBytes(body), nil
}

// RequireString returns the string at path or a *ParseError if it is missing,
// not a string, or empty.
func RequireString(doc gjson.Result, path string) (string, error) {
	v := doc.Get(path)
	if !v.Exists() {
		return "", &ParseError{Path: path, Reason: "missing"}
	}
	if v.Type != gjson.String {
		return "", &ParseError{Path: path, Reason: "not a string"}
	}
	if v.Str == "" {
		return "", &ParseError{Path: path, Reason: "empty"}
	}
	return v.Str, nil
}
