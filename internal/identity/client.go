// Package identity is the HTTP client of the remote identity service.
//
// The service is an external collaborator; this package covers exactly the
// three endpoints the session store consumes and maps every non-2xx answer
// to an error so callers never see raw transport details.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnauthorized covers 401/403 answers: bad credentials or a token the
	// service no longer honors.
	ErrUnauthorized = errors.New("identity: unauthorized")
	// ErrRequestFailed covers every other non-2xx answer.
	ErrRequestFailed = errors.New("identity: request failed")
)

// LoginResult is the /users/login success payload.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
}

// RegisterResult is the /users/register success payload.
type RegisterResult struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Profile is the /users/me success payload.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the identity service at baseURL.
// timeout bounds each call; zero keeps the original behavior of waiting
// indefinitely on a hung service.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("identity: base URL is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Login exchanges credentials for a token. The endpoint is form-encoded and
// uses "username" for the email, matching the service contract.
func (c *Client) Login(ctx context.Context, identifier, secret string) (LoginResult, error) {
	form := url.Values{}
	form.Set("username", identifier)
	form.Set("password", secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/login", strings.NewReader(form.Encode()))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out LoginResult
	if err := c.do(req, &out); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// Register creates an account and returns the role the service assigned.
func (c *Client) Register(ctx context.Context, email, secret string) (RegisterResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": secret})
	if err != nil {
		return RegisterResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/register", strings.NewReader(string(body)))
	if err != nil {
		return RegisterResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out RegisterResult
	if err := c.do(req, &out); err != nil {
		return RegisterResult{}, err
	}
	return out, nil
}

// Me resolves the identity behind a token. An expired or revoked token
// surfaces as ErrUnauthorized.
func (c *Client) Me(ctx context.Context, token string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return Profile{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out Profile
	if err := c.do(req, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s %s: %d", ErrUnauthorized, req.Method, req.URL.Path, resp.StatusCode)
		}
		return fmt.Errorf("%w: %s %s: %d", ErrRequestFailed, req.Method, req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity: decode %s: %w", req.URL.Path, err)
	}
	return nil
}
