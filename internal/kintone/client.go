package kintone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a POST when the caller supplies no http.Client.
const DefaultTimeout = 30 * time.Second

// Client posts records to the record store.
type Client struct {
	BaseURL     string
	Token       string // sent as X-Cybozu-API-Token when set
	ContentType string // sent as Content-Type when set
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// Result is the record store's answer to a successful POST.
type Result struct {
	ID       string
	Revision string
}

// Post sends req and returns the created record's ID. A non-2xx answer is
// returned as *APIError.
func (c *Client) Post(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode record request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build record request: %w", err)
	}
	if c.Token != "" {
		httpReq.Header.Set("X-Cybozu-API-Token", c.Token)
	}
	if c.ContentType != "" {
		httpReq.Header.Set("Content-Type", c.ContentType)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post record: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read record response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		c.logger().Warn("record rejected", "status", resp.StatusCode, "code", apiErr.Code, "fields", len(apiErr.Messages))
		return nil, apiErr
	}

	result, err := parseResult(respBody)
	if err != nil {
		return nil, err
	}
	c.logger().Info("record posted", "id", result.ID, "app", req.App)
	return result, nil
}

func (c *Client) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

// parseResult accepts {"id": ...} either as an object or as a JSON string
// holding that object.
func parseResult(body []byte) (*Result, error) {
	var raw map[string]any
	if err := json.Unmarshal(unquote(body), &raw); err != nil {
		return nil, fmt.Errorf("decode record response: %w", err)
	}
	return &Result{ID: scalar(raw["id"]), Revision: scalar(raw["revision"])}, nil
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
