// Package api is the HTTP client adapter for the admin REST API. It attaches
// bearer credentials, decodes the {success, data, message, traceId} envelope and
// maps failures onto a small error taxonomy (see Message).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-request id so server logs can be correlated.
const RequestIDHeader = "X-Request-Id"

// TokenSource yields the current bearer token. It is consulted on every request.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token() (string, error) { return f() }

// Envelope is the response wrapper used by every endpoint except health.
type Envelope[T any] struct {
	Success    bool   `json:"success"`
	StatusCode string `json:"statusCode,omitempty"`
	Data       T      `json:"data"`
	Message    string `json:"message,omitempty"`
	TraceID    string `json:"traceId,omitempty"`
}

// Client performs requests against the admin API. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for baseURL. tokens may be nil for an unauthenticated client.
func New(baseURL string, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		log:        logger.With("adapter", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authMode int

const (
	authOptional authMode = iota // attach a token when one is stored
	authRequired                 // fail with ErrNotLoggedIn when none is stored
)

// send performs one request and returns the raw body of a 2xx response.
func (c *Client) send(ctx context.Context, method, path string, body any, mode authMode) ([]byte, error) {
	token, err := c.token()
	if err != nil {
		return nil, &TransportError{Op: "read token", Err: err}
	}
	if token == "" && mode == authRequired {
		return nil, ErrNotLoggedIn
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "api response",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
		slog.String("request_id", req.Header.Get(RequestIDHeader)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}
	return raw, nil
}

func (c *Client) token() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens.Token()
}

// call performs a request and unwraps the envelope into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any, mode authMode) (T, error) {
	var zero T

	raw, err := c.send(ctx, method, path, body, mode)
	if err != nil {
		return zero, err
	}

	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, &TransportError{Op: "decode " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		c.log.WarnContext(ctx, "api business failure",
			slog.String("path", path),
			slog.String("message", env.Message),
			slog.String("trace_id", env.TraceID),
		)
		return zero, &BusinessError{Message: env.Message, TraceID: env.TraceID}
	}
	return env.Data, nil
}

// Do performs an authenticated request outside the typed endpoints and decodes
// the envelope's data into out (which may be nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	data, err := call[json.RawMessage](ctx, c, method, path, body, authOptional)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: "decode " + path, Err: err}
	}
	return nil
}
