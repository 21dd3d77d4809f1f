package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxzi/backoffice/internal/metrics"
)

// Tokens is an access/refresh token pair issued by the admin API
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore holds the tokens attached to outgoing requests. Implementations
// may scope tokens to the request context (one browser session each).
type TokenStore interface {
	Tokens(ctx context.Context) (Tokens, error)
	SetTokens(ctx context.Context, tokens Tokens) error
	ClearTokens(ctx context.Context) error
}

// Client is the shared admin API client. Every service issues its calls
// through one Client and therefore one transport.
type Client struct {
	baseURL    string
	tokens     TokenStore
	httpClient *http.Client
}

// New creates an API client. tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenStore, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TokenStore returns the store used to authenticate requests
func (c *Client) TokenStore() TokenStore {
	return c.tokens
}

// SetTokens stores a new token pair
func (c *Client) SetTokens(ctx context.Context, tokens Tokens) error {
	if c.tokens == nil {
		return errors.New("no token store configured")
	}
	return c.tokens.SetTokens(ctx, tokens)
}

// ClearAuth removes stored tokens
func (c *Client) ClearAuth(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.ClearTokens(ctx)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.request(ctx, http.MethodGet, path, query, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.request(ctx, http.MethodPost, path, nil, body, result)
}

func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.request(ctx, http.MethodPut, path, nil, body, result)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil, nil)
}

// request performs an HTTP request to the admin API
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if c.tokens != nil {
		tokens, err := c.tokens.Tokens(ctx)
		if err != nil {
			return fmt.Errorf("load tokens: %w", err)
		}
		if tokens.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveAPICall(method, path, "error", time.Since(start))
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPICall(method, path, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Message: extractMessage(data)}
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
