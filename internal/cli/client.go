package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cashflow/internal/api"
)

// Client talks to the control surface of a running cashflowd.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, &out)
}

func (c *Client) State(ctx context.Context) (api.StateView, error) {
	var out api.StateView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

// Ledger returns entries newest first; all bypasses the active filters, limit 0 means no limit.
func (c *Client) Ledger(ctx context.Context, all bool, limit int) ([]api.EntryView, error) {
	q := url.Values{}
	if all {
		q.Set("all", "1")
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/ledger"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Entries []api.EntryView `json:"entries"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out.Entries, err
}

func (c *Client) Actions(ctx context.Context) ([]api.ActionView, error) {
	var out struct {
		Actions []api.ActionView `json:"actions"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/actions", nil, &out)
	return out.Actions, err
}

func (c *Client) Perform(ctx context.Context, id string) (api.ActionResult, error) {
	var out api.ActionResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/actions/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) ToggleFilter(ctx context.Context, account string) ([]string, error) {
	var out struct {
		ActiveFilters []string `json:"active_filters"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/filters/"+url.PathEscape(account), nil, &out)
	return out.ActiveFilters, err
}

func (c *Client) Reset(ctx context.Context) (api.StateView, error) {
	var out api.StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/reset", nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError is a non-2xx answer from the daemon.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("daemon status %d: %s", e.Code, e.Message)
}
