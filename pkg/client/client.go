// Package client is a JSON client for the admin pages API.
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
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
	"github.com/ozitag/tager-admin-pages/pkg/template"
)

// Direction moves a page among its siblings.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is up or down.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Meta is the pagination block attached to list responses.
type Meta struct {
	Page struct {
		Number int `json:"number"`
		Size   int `json:"size"`
		Count  int `json:"count"`
	} `json:"page"`
	Total int `json:"total"`
}

// Response is the {"data": ..., "meta": ...} envelope every endpoint uses.
type Response[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// FieldError describes a rejected payload attribute.
type FieldError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ResponseError is returned for non-2xx responses.
type ResponseError struct {
	Status  int                   `json:"-"`
	Message string                `json:"message"`
	Errors  map[string]FieldError `json:"errors,omitempty"`
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("client: %d %s", e.Status, msg)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var rerr *ResponseError
	return errors.As(err, &rerr) && rerr.Status == http.StatusNotFound
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// Client calls the admin pages endpoints below a base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	headers http.Header
}

// New returns a client for baseURL, for example "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		headers: http.Header{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Templates lists the page templates.
func (c *Client) Templates(ctx context.Context) ([]template.Short, error) {
	var resp Response[[]template.Short]
	if err := c.do(ctx, http.MethodGet, "/admin/pages/templates", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Template fetches one template with its field definitions.
func (c *Client) Template(ctx context.Context, id string) (template.Full, error) {
	var resp Response[template.Full]
	if err := c.do(ctx, http.MethodGet, "/admin/pages/templates/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return template.Full{}, err
	}
	return resp.Data, nil
}

// Pages lists pages.
func (c *Client) Pages(ctx context.Context, params page.ListParams) ([]page.Short, *Meta, error) {
	var resp Response[[]page.Short]
	if err := c.do(ctx, http.MethodGet, "/admin/pages", params.Values(), nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Data, resp.Meta, nil
}

// AllPages lists every page in one request.
func (c *Client) AllPages(ctx context.Context) ([]page.Short, error) {
	pages, _, err := c.Pages(ctx, page.AllPages())
	return pages, err
}

// PagesWithChildren lists the pages that have at least one child.
func (c *Client) PagesWithChildren(ctx context.Context) ([]page.Short, error) {
	pages, _, err := c.Pages(ctx, page.ListParams{WithChildren: true})
	return pages, err
}

// Count returns the number of pages, optionally restricted to a template.
func (c *Client) Count(ctx context.Context, templateID string) (int, error) {
	query := url.Values{}
	if templateID != "" {
		query.Set("template", templateID)
	}
	var resp Response[page.Count]
	if err := c.do(ctx, http.MethodGet, "/admin/pages/count", query, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Count, nil
}

// Page fetches one page.
func (c *Client) Page(ctx context.Context, id int64) (page.Full, error) {
	var resp Response[page.Full]
	if err := c.do(ctx, http.MethodGet, pagePath(id), nil, nil, &resp); err != nil {
		return page.Full{}, err
	}
	return resp.Data, nil
}

// Info fetches the module configuration.
func (c *Client) Info(ctx context.Context) (page.Info, error) {
	var resp Response[page.Info]
	if err := c.do(ctx, http.MethodGet, "/admin/pages/info", nil, nil, &resp); err != nil {
		return page.Info{}, err
	}
	return resp.Data, nil
}

// Create creates a page.
func (c *Client) Create(ctx context.Context, payload page.CreatePayload) (page.Full, error) {
	var resp Response[page.Full]
	if err := c.do(ctx, http.MethodPost, "/admin/pages", nil, payload, &resp); err != nil {
		return page.Full{}, err
	}
	return resp.Data, nil
}

// Update replaces a page.
func (c *Client) Update(ctx context.Context, id int64, payload page.UpdatePayload) (page.Full, error) {
	var resp Response[page.Full]
	if err := c.do(ctx, http.MethodPut, pagePath(id), nil, payload, &resp); err != nil {
		return page.Full{}, err
	}
	return resp.Data, nil
}

// Delete removes a page. The boolean mirrors the server's success flag.
func (c *Client) Delete(ctx context.Context, id int64) (bool, error) {
	var resp page.Success
	if err := c.do(ctx, http.MethodDelete, pagePath(id), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Move moves a page up or down among its siblings.
func (c *Client) Move(ctx context.Context, id int64, direction Direction) (bool, error) {
	if !direction.Valid() {
		return false, fmt.Errorf("client: invalid move direction %q", direction)
	}
	var resp page.Success
	if err := c.do(ctx, http.MethodPost, pagePath(id)+"/move/"+string(direction), nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Clone duplicates a page and returns the copy.
func (c *Client) Clone(ctx context.Context, id int64) (page.Full, error) {
	var resp Response[page.Full]
	if err := c.do(ctx, http.MethodPost, pagePath(id)+"/clone", nil, nil, &resp); err != nil {
		return page.Full{}, err
	}
	return resp.Data, nil
}

// Upload sends a file as multipart form data and returns the stored file.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (fields.File, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", path.Base(name))
	if err != nil {
		return fields.File{}, fmt.Errorf("client: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fields.File{}, fmt.Errorf("client: copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fields.File{}, fmt.Errorf("client: close multipart: %w", err)
	}

	var resp Response[fields.File]
	if err := c.send(ctx, http.MethodPost, "/admin/upload", nil, &body, writer.FormDataContentType(), &resp); err != nil {
		return fields.File{}, err
	}
	return resp.Data, nil
}

func pagePath(id int64) string {
	return "/admin/pages/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, p string, query url.Values, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", method, p, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, p, query, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, p string, query url.Values, body io.Reader, contentType string, out any) error {
	if ctx == nil {
		return errors.New("client: context is nil")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + p
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("client: build %s %s: %w", method, p, err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, p, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read %s %s: %w", method, p, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &ResponseError{Status: resp.StatusCode}
		if len(bytes.TrimSpace(data)) > 0 {
			_ = json.Unmarshal(data, rerr)
		}
		return rerr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, p, err)
	}
	return nil
}
