package auth

import (
	"context"
	"fmt"

	"github.com/squadbid/storefront/internal/httputil"
)

// LoginResult is the backend's answer to a login attempt.
type LoginResult struct {
	Token      string `json:"token"`
	IsCustomer bool   `json:"isCustomer"`
}

// RegisterRequest is the payload for creating a new customer account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client talks to the backend authentication API.
type Client struct {
	http *httputil.Client
}

// NewClient creates an auth API client on top of the shared HTTP client.
func NewClient(http *httputil.Client) *Client {
	return &Client{http: http}
}

var _ Backend = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	resp, err := c.http.Post(ctx, "/api/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return LoginResult{}, fmt.Errorf("login request: %w", err)
	}

	var result LoginResult
	if err := httputil.DecodeResponse(resp, &result); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	return result, nil
}

// Register creates a new account. The customer still logs in separately.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.http.Post(ctx, "/api/auth/register", req)
	if err != nil {
		return fmt.Errorf("register request: %w", err)
	}
	if err := httputil.DecodeResponse(resp, nil); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}
