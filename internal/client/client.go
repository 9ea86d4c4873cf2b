// Package client talks to a running toastify server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/toastify/internal/api"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// ErrNotFound is returned when the server has no such resource.
var ErrNotFound = errors.New("not found")

// Client is an HTTP client for the toast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. A bare host:port is
// treated as http.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HealthCheck checks if the server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, api.PathHealth, nil, nil)
}

// Add pushes a toast and returns its id.
func (c *Client) Add(ctx context.Context, opts model.Options) (string, error) {
	var resp api.AddResponse
	if err := c.do(ctx, http.MethodPost, api.PathToasts, opts, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Category pushes a success, error, info or warning toast.
func (c *Client) Category(ctx context.Context, kind model.Color, title, description string, overrides *model.Options) (string, error) {
	req := api.CategoryRequest{Title: title, Description: description, Overrides: overrides}

	var resp api.AddResponse
	if err := c.do(ctx, http.MethodPost, api.PathToasts+"/"+url.PathEscape(string(kind)), req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Toasts returns the current stack.
func (c *Client) Toasts(ctx context.Context) ([]model.Toast, error) {
	var resp api.ToastsResponse
	if err := c.do(ctx, http.MethodGet, api.PathToasts, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Toasts, nil
}

// Get returns one toast.
func (c *Client) Get(ctx context.Context, id string) (model.Toast, error) {
	var toast model.Toast
	err := c.do(ctx, http.MethodGet, api.PathToasts+"/"+url.PathEscape(id), nil, &toast)
	return toast, err
}

// Remove dismisses a toast. Unknown ids are not an error.
func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, api.PathToasts+"/"+url.PathEscape(id), nil, nil)
}

// Clear empties the stack.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, api.PathToasts, nil, nil)
}

// Config returns the server's effective toast configuration.
func (c *Client) Config(ctx context.Context) (api.ConfigResponse, error) {
	var resp api.ConfigResponse
	err := c.do(ctx, http.MethodGet, api.PathConfig, nil, &resp)
	return resp, err
}

// HistoryQuery selects history entries.
type HistoryQuery struct {
	Limit  int
	Reason history.Reason
	Color  model.Color
	Since  string
	Filter string
}

func (q HistoryQuery) encode() string {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Reason != "" {
		v.Set("reason", string(q.Reason))
	}
	if q.Color != "" {
		v.Set("color", string(q.Color))
	}
	if q.Since != "" {
		v.Set("since", q.Since)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// History returns removed toasts, newest first.
func (c *Client) History(ctx context.Context, q HistoryQuery) ([]history.Entry, error) {
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, api.PathHistory+q.encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// ClearHistory removes all history entries.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, api.PathHistory, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
