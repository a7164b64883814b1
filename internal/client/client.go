// Package client talks to the orders HTTP API. It satisfies board.OrderAPI,
// so the page controller can run against a remote server as well.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"order-board/internal/models"
	"order-board/internal/port"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	backoffs   []time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoffs sets the waits between retries of idempotent reads.
func WithBackoffs(backoffs ...time.Duration) Option {
	return func(c *Client) { c.backoffs = backoffs }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoffs: []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Response   models.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Message != "" {
		return fmt.Sprintf("status %d: %s: %s", e.StatusCode, e.Response.Error, e.Response.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Response.Error)
}

// Unwrap lets callers match a 404 with errors.Is(err, port.ErrNotFound).
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return port.ErrNotFound
	}
	return nil
}

func (c *Client) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := c.retry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, "/api/orders", nil, http.StatusOK, &orders)
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (c *Client) Get(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := c.retry(ctx, func() error {
		return c.doJSON(ctx, http.MethodGet, orderPath(id), nil, http.StatusOK, &order)
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// Create posts a JSON draft, or a multipart form when an image is attached.
func (c *Client) Create(ctx context.Context, draft models.OrderDraft, image *models.ImageUpload) (models.Order, error) {
	var order models.Order
	var err error
	if image == nil {
		err = c.doJSON(ctx, http.MethodPost, "/api/orders", draft, http.StatusCreated, &order)
	} else {
		err = c.doMultipart(ctx, http.MethodPost, "/api/orders", draftFields(draft), image, http.StatusCreated, &order)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

func (c *Client) Update(ctx context.Context, id string, patch models.OrderPatch, image *models.ImageUpload) (models.Order, error) {
	var order models.Order
	var err error
	if image == nil {
		err = c.doJSON(ctx, http.MethodPatch, orderPath(id), patch, http.StatusOK, &order)
	} else {
		err = c.doMultipart(ctx, http.MethodPatch, orderPath(id), patchFields(patch), image, http.StatusOK, &order)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	return order, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, orderPath(id), nil, http.StatusNoContent, nil); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, want, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, image *models.ImageUpload, want int, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("image", image.Filename)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, image.Body); err != nil {
		return fmt.Errorf("failed to copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return c.do(req, want, out)
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &apiErr.Response) != nil || apiErr.Response.Error == "" {
			apiErr.Response.Error = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	return nil
}

// retry repeats fn on transport errors and 5xx answers. 4xx answers are final.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i <= len(c.backoffs); i++ {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		if i == len(c.backoffs) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoffs[i]):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", len(c.backoffs)+1, lastErr)
}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func orderPath(id string) string {
	return "/api/orders/" + url.PathEscape(id)
}

func draftFields(d models.OrderDraft) map[string]string {
	fields := map[string]string{
		"name":   d.Name,
		"member": d.Member,
		"source": d.Source,
		"note":   d.Note,
		"owner":  d.Owner,
		"paid":   fmt.Sprint(d.Paid),
	}
	if d.State != "" {
		fields["state"] = string(d.State)
	}
	return fields
}

// patchFields sends only the fields the patch sets.
func patchFields(p models.OrderPatch) map[string]string {
	fields := map[string]string{}
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	set("name", p.Name)
	set("member", p.Member)
	set("source", p.Source)
	set("note", p.Note)
	set("owner", p.Owner)
	if p.State != nil {
		fields["state"] = string(*p.State)
	}
	if p.Paid != nil {
		fields["paid"] = fmt.Sprint(*p.Paid)
	}
	return fields
}
