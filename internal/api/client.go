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
	"golang.org/x/sync/semaphore"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 1 << 20

// TokenSource yields the persisted bearer token, or "" when anonymous.
// The credential store implements it; tests substitute a stub.
type TokenSource interface {
	Token() (string, error)
}

// Client wraps outbound requests to the devconnect API. It attaches the
// bearer token from the credential store on non-public routes, bounds
// concurrent requests, and normalizes every failure into *Error.
//
// The client never clears the session itself; deciding what a 401 means
// is the session store's job.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

// New creates a Client for the given base URL. maxConcurrent bounds the
// number of in-flight requests; timeout applies per request.
func New(baseURL string, timeout time.Duration, maxConcurrent int64, tokens TokenSource, logger *slog.Logger) *Client {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		sem:     semaphore.NewWeighted(maxConcurrent),
		logger:  logger,
	}
}

// Get issues a GET and decodes the response into out (may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and decodes the response into out (may be nil).
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// publicRoute reports whether the request needs no Authorization header:
// registration, login, and the public profile/job/github reads.
func publicRoute(method, path string) bool {
	if method == http.MethodPost {
		return path == "/register" || path == "/login"
	}
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range []string{"/profiles", "/jobs", "/github/"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return networkError(err)
	}
	defer c.sem.Release(1)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	if !publicRoute(method, path) {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to read stored token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := normalizeError(resp.StatusCode, data)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			c.logger.Warn("token rejected", "method", method, "path", path)
		case http.StatusForbidden:
			c.logger.Warn("access denied", "method", method, "path", path)
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
