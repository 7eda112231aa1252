package backend

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

	"github.com/google/uuid"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	userAgent          = "Cineforge-Go/0.1.0"
)

// Client talks to the backend-as-a-service: auth endpoints, PostgREST-style
// table access, and named edge functions. All durable state and pipeline
// orchestration live behind this boundary.
type Client struct {
	baseURL    string
	anonKey    string
	session    *Session
	httpClient *http.Client
}

// Option customizes the backend client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSession attaches an existing session (e.g. loaded from disk).
func WithSession(session *Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// NewClient constructs a backend client for the given project URL and anon key.
func NewClient(baseURL, anonKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		anonKey:    strings.TrimSpace(anonKey),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AnonKey returns the public API key used for unauthenticated requests.
func (c *Client) AnonKey() string {
	return c.anonKey
}

// Session returns the current session, if any.
func (c *Client) Session() *Session {
	return c.session
}

// SetSession replaces the active session. Passing nil signs the client out.
func (c *Client) SetSession(session *Session) {
	c.session = session
}

func (c *Client) endpoint(parts ...string) (string, error) {
	joined, err := url.JoinPath(c.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("backend: build url: %w", err)
	}
	return joined, nil
}

// do executes a JSON request against the backend. A nil out discards the
// response body. Non-2xx responses decode into *APIError.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyAuth(req)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("backend: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	token := c.anonKey
	if c.session != nil && strings.TrimSpace(c.session.AccessToken) != "" {
		token = c.session.AccessToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeAPIError(status int, payload []byte) error {
	apiErr := &APIError{Status: status}
	if len(payload) > 0 {
		// Body shape varies between the auth, rest, and functions surfaces;
		// keep whatever fields decode and fall back to the raw text.
		_ = json.Unmarshal(payload, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(payload))
	}
	if status == http.StatusConflict {
		var conflict ActiveProjectError
		if err := json.Unmarshal(payload, &conflict); err == nil && conflict.ProjectID != "" {
			return &conflict
		}
	}
	return apiErr
}
