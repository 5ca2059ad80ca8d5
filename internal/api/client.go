package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/heatchat/internal/core"
	"github.com/vovakirdan/heatchat/internal/proto"
)

const (
	pathLastMessages = "messages/last3"
	pathAuthenticate = "authenticate"
	pathProfile      = "profile"
	pathMessages     = "messages"
)

// StatusError is returned for non-2xx responses. Code is the backend
// error code, empty when the body carried none.
type StatusError struct {
	Method string
	Path   string
	Status int
	Code   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Status, e.Method, e.Path, e.Body)
}

// Unwrap maps 401 to core.ErrUnauthorized.
func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return core.ErrUnauthorized
	}
	return nil
}

// Client is the HTTP client shared by the session manager and the feed.
// It carries the default bearer token for every request it sends.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken sets the default Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the default Authorization header.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// LastMessages fetches the three most recent messages.
func (c *Client) LastMessages(ctx context.Context) ([]core.Message, error) {
	var msgs []proto.Message
	if err := c.do(ctx, http.MethodGet, pathLastMessages, nil, &msgs); err != nil {
		return nil, err
	}
	return proto.MessagesToCore(msgs), nil
}

// Authenticate exchanges an authorization code for a bearer token and user.
func (c *Client) Authenticate(ctx context.Context, code string) (string, core.User, error) {
	var resp proto.AuthResponse
	if err := c.do(ctx, http.MethodPost, pathAuthenticate, proto.AuthenticateRequest{Code: code}, &resp); err != nil {
		return "", core.User{}, err
	}
	if resp.Token == "" {
		return "", core.User{}, fmt.Errorf("authenticate: empty token in response")
	}
	return resp.Token, resp.User.ToCore(), nil
}

// Profile fetches the user the current token belongs to.
func (c *Client) Profile(ctx context.Context) (core.User, error) {
	var user proto.User
	if err := c.do(ctx, http.MethodGet, pathProfile, nil, &user); err != nil {
		return core.User{}, err
	}
	return user.ToCore(), nil
}

// PostMessage publishes a message as the signed-in user.
func (c *Client) PostMessage(ctx context.Context, text string) (core.Message, error) {
	var msg proto.Message
	if err := c.do(ctx, http.MethodPost, pathMessages, proto.CreateMessageRequest{Text: text}, &msg); err != nil {
		return core.Message{}, err
	}
	return msg.ToCore(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var errResp proto.ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Code: errResp.Code, Body: msg}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response from %s %s: %w", method, path, err)
	}
	return nil
}
