// Package sdk is a small Go client for the taskdock HTTP API. It wraps
// the register/login/refresh flows and exposes an authenticated Session
// that refreshes its access token transparently.
package sdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to a taskdock server. The zero HTTPClient gets a sane
// default timeout; callers needing custom transports set their own.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns an authenticated session; the
// server signs new accounts in immediately.
func (c *Client) Register(ctx context.Context, email, password string) (*Session, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/v1/auth/register", RegisterRequest{Email: email, Password: password}, &resp, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// Login authenticates an email/password pair and returns a session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// NewSessionFromTokens rebuilds a session from stored tokens. The session
// still auto-refreshes once the access token nears expiry.
func (c *Client) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second) // refresh a little early

	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
	}
}

// Livez checks the liveness probe.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON(ctx, "/livez", &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}
