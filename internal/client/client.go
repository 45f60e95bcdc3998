// Package client talks to the remote inventory API: a single endpoint that
// answers GET ?action=... reads and JSON POST writes with a
// {success, data, error} envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Client is the HTTP adapter for the remote API. Its methods never return a
// Go error: every failure is folded into an unsuccessful model.Result.
// There are no retries and no client-side timeout; the caller's context is
// the only way to abandon a request.
type Client struct {
	endpoint   string
	httpClient *http.Client
	secret     string
	name       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSecret makes the client sign every request with a bearer JWT.
func WithSecret(secret string) Option {
	return func(c *Client) { c.secret = secret }
}

// WithName sets the client name carried in request tokens.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		name:       "zaloga",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the host name of the endpoint, or "" if it does not parse.
func (c *Client) Host() string {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// GetMaster fetches the category and location lists.
func (c *Client) GetMaster(ctx context.Context) model.Result {
	return c.get(ctx, model.ActionGetMaster)
}

// GetInventory fetches every item.
func (c *Client) GetInventory(ctx context.Context) model.Result {
	return c.get(ctx, model.ActionGetInventory)
}

// Post sends a write request.
func (c *Client) Post(ctx context.Context, r model.Request) model.Result {
	body, err := json.Marshal(r)
	if err != nil {
		return c.fail(r.Action(), fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(r.Action(), fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(r.Action(), req)
}

func (c *Client) get(ctx context.Context, action string) model.Result {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return c.fail(action, fmt.Errorf("parsing endpoint: %w", err))
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return c.fail(action, fmt.Errorf("creating request: %w", err))
	}

	return c.do(action, req)
}

func (c *Client) do(action string, req *http.Request) model.Result {
	req.Header.Set("Accept", "application/json")
	if c.secret != "" {
		token, err := auth.GenerateToken(c.secret, c.name)
		if err != nil {
			return c.fail(action, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(action, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(action, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return c.fail(action, fmt.Errorf("reading response: %w", err))
	}

	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return c.fail(action, fmt.Errorf("decoding response: %w", err))
	}
	if !result.Success {
		slog.Warn("remote api rejected request", "action", action, "error", result.Error)
	}
	return result
}

func (c *Client) fail(action string, err error) model.Result {
	slog.Warn("remote api request failed", "action", action, "error", err)
	return model.TransportFailure(err.Error())
}
