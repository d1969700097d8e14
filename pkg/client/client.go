package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cmerrors "cachemgr/pkg/errors"
)

// cachemgr Go client
//
// A thin wrapper around the cachemgr HTTP API.
//
// Non-successful responses come back as *APIError. A 404 on Get or Delete is
// also reported as errors.ErrMiss or errors.ErrNotFound so callers can use
// errors.Is the same way they would against an in-process cache.
//
// Example usage:
//  c := New("http://localhost:8080")
//  if err := c.Put(ctx, "k", "v"); err != nil { ... }
//  v, err := c.Get(ctx, "k")

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cachemgr: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// Stats mirrors the server's statistics snapshot.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Inserts   int64   `json:"inserts"`
	Updates   int64   `json:"updates"`
	Deletes   int64   `json:"deletes"`
	Evictions int64   `json:"evictions"`
	Size      int64   `json:"size"`
	MaxSize   int64   `json:"max_size"`
	HitRatio  float64 `json:"hit_ratio"`
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// request sends body as JSON and returns the response body. notFound is the
// error a 404 unwraps to.
func (c *Client) request(ctx context.Context, method, path string, body any, notFound error) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		switch resp.StatusCode {
		case http.StatusNotFound:
			apiErr.kind = notFound
		case http.StatusBadRequest:
			apiErr.kind = cmerrors.ErrInvalidArgument
		case http.StatusServiceUnavailable:
			apiErr.kind = cmerrors.ErrDestroyed
		}
		return nil, apiErr
	}
	return respBody, nil
}

func keyPath(key string) string {
	return "/v1/keys/" + url.PathEscape(key)
}

// HealthCheck reports whether the server answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	resp, err := c.request(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return false, err
	}
	var result map[string]any
	if err := json.Unmarshal(resp, &result); err != nil {
		return false, err
	}
	return result["status"] == "ok", nil
}

// Put stores value under key.
func (c *Client) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return cmerrors.ErrInvalidArgument
	}
	_, err := c.request(ctx, http.MethodPut, keyPath(key), map[string]string{"value": value}, nil)
	return err
}

// Get fetches the value under key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", cmerrors.ErrInvalidArgument
	}
	resp, err := c.request(ctx, http.MethodGet, keyPath(key), nil, cmerrors.ErrMiss)
	if err != nil {
		return "", err
	}
	var result struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return "", err
	}
	return result.Value, nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return cmerrors.ErrInvalidArgument
	}
	_, err := c.request(ctx, http.MethodDelete, keyPath(key), nil, cmerrors.ErrNotFound)
	return err
}

// Keys lists keys from most to least recently used.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	resp, err := c.request(ctx, http.MethodGet, "/v1/keys", nil, nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Keys []string `json:"keys"`
	}
	err = json.Unmarshal(resp, &result)
	return result.Keys, err
}

// Stats fetches the server's counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	resp, err := c.request(ctx, http.MethodGet, "/v1/stats", nil, nil)
	if err != nil {
		return stats, err
	}
	err = json.Unmarshal(resp, &stats)
	return stats, err
}
