// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fixonway/fixonway-tui/internal/model"
)

// Configuration constants for the Fixonway API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// maxResponseSize bounds response bodies so a misbehaving server cannot
	// exhaust memory.
	maxResponseSize = 1 * 1024 * 1024
)

// Error variables for common API failures.
var (
	// ErrInvalidCredentials indicates the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates registration failed because the email is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnauthorized indicates the token was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable indicates the server could not be reached or kept
	// failing after retries.
	ErrUnavailable = errors.New("server unavailable")
)

// apiErrorResponse is the error envelope the API returns on failure.
type apiErrorResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the Fixonway HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithMaxRetries sets the maximum number of retry attempts.
func (c *Client) WithMaxRetries(n int) *Client {
	c.maxRetries = n
	return c
}

// =============================================================================
// AUTH
// =============================================================================

// AuthResult is the successful outcome of login or registration.
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an identity and bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/login", loginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &out)
	return out, err
}

// Register creates a new account and signs it in.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/register", registerRequest{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &out)
	return out, err
}

// Me validates a token and returns the identity it belongs to.
func (c *Client) Me(ctx context.Context, token string) (model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return model.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var user model.User
	if err := c.do(req, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do executes the request with retries on transient failures. Client errors
// (4xx) never retry; they map to sentinel errors.
func (c *Client) do(req *http.Request, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-req.Context().Done():
				return req.Context().Err()
			case <-time.After(delay):
			}
			if req.Body != nil {
				body, err := req.GetBody()
				if err != nil {
					return err
				}
				req.Body = body
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		retriable, err := c.consume(resp, out)
		if err == nil {
			return nil
		}
		if !retriable {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// consume reads one response. The second return is nil on success; the
// first reports whether a failure is worth retrying.
func (c *Client) consume(resp *http.Response, out any) (retriable bool, err error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return false, nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return false, sentinelOr(data, ErrInvalidCredentials)
	case resp.StatusCode == http.StatusConflict:
		return false, sentinelOr(data, ErrEmailTaken)
	case resp.StatusCode == http.StatusForbidden:
		return false, sentinelOr(data, ErrUnauthorized)
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("server error: %s", resp.Status)
	default:
		return false, fmt.Errorf("unexpected status %s: %s", resp.Status, serverMessage(data))
	}
}

// sentinelOr wraps the sentinel with the server's message when it sent one.
func sentinelOr(data []byte, sentinel error) error {
	if msg := serverMessage(data); msg != "" {
		return fmt.Errorf("%w: %s", sentinel, msg)
	}
	return sentinel
}

func serverMessage(data []byte) string {
	var e apiErrorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		return ""
	}
	return e.Message
}
