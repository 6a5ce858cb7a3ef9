package api

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

	"golang.org/x/sync/errgroup"

	"github.com/kg46sp8kps-web/gestima-sub009/pkg/model"
)

// DefaultTimeout bounds every request issued by the client.
const DefaultTimeout = 10 * time.Second

// MaxConcurrentGets limits the GetMany fan-out.
const MaxConcurrentGets = 4

// Query describes a list request. Search and Filters are server-side; the
// feed applies its own client-side filtering on top of loaded rows.
type Query struct {
	Limit   int
	Offset  int
	Search  string
	Filters map[string]string
}

// Page is the server's list response shape.
type Page struct {
	Items []model.Entity `json:"items"`
	Total int            `json:"total"`
}

// patchRequest is the wire shape of a mutating call.
type patchRequest struct {
	Version int               `json:"version"`
	Fields  map[string]string `json:"fields"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Client talks to one entity collection (e.g. /parts) of the business API.
type Client struct {
	base     string
	resource string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for baseURL/resource.
func NewClient(baseURL, resource string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		resource: strings.Trim(resource, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) entityURL(id int64) string {
	return fmt.Sprintf("%s/%s/%d", c.base, c.resource, id)
}

// Get fetches a single entity.
func (c *Client) Get(ctx context.Context, id int64) (model.Entity, error) {
	var ent model.Entity
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.entityURL(id), nil)
	if err != nil {
		return ent, &NetworkError{Op: "get", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ent, &NetworkError{Op: "get", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ent, c.decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&ent); err != nil {
		return ent, &NetworkError{Op: "get", Err: err}
	}
	return ent, nil
}

// GetMany fetches several entities concurrently, preserving input order.
// The first failure cancels the remaining fetches.
func (c *Client) GetMany(ctx context.Context, ids []int64) ([]model.Entity, error) {
	out := make([]model.Entity, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentGets)
	for i, id := range ids {
		g.Go(func() error {
			ent, err := c.Get(gctx, id)
			if err != nil {
				return err
			}
			out[i] = ent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches an entity, carrying the version the caller last observed.
// A stale version yields *ConflictError holding the server's current value;
// the local draft is left for the caller to discard or re-edit.
func (c *Client) Update(ctx context.Context, ent model.Entity, patch map[string]string) (model.Entity, error) {
	var updated model.Entity
	body, err := json.Marshal(patchRequest{Version: ent.Version, Fields: patch})
	if err != nil {
		return updated, &NetworkError{Op: "update", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.entityURL(ent.ID), bytes.NewReader(body))
	if err != nil {
		return updated, &NetworkError{Op: "update", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return updated, &NetworkError{Op: "update", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return updated, c.decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return updated, &NetworkError{Op: "update", Err: err}
	}
	return updated, nil
}

// List fetches one page. Server-side filters ride as query parameters.
func (c *Client) List(ctx context.Context, q Query) (Page, error) {
	var page Page
	vals := url.Values{}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		vals.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Search != "" {
		vals.Set("q", q.Search)
	}
	for k, v := range q.Filters {
		vals.Set(k, v)
	}

	u := c.base + "/" + c.resource
	if enc := vals.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return page, &NetworkError{Op: "list", Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return page, &NetworkError{Op: "list", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page, c.decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, &NetworkError{Op: "list", Err: err}
	}
	return page, nil
}

// decodeError maps a non-200 response onto the error taxonomy. 409 carries
// the server's current entity in the body.
func (c *Client) decodeError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusConflict:
		var current model.Entity
		if err := json.NewDecoder(resp.Body).Decode(&current); err != nil {
			return &NetworkError{Op: "decode conflict body", Err: err}
		}
		return &ConflictError{CurrentVersion: current.Version, Current: current}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var er errorResponse
		// A body-less 4xx still maps to a validation error.
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return &ValidationError{Status: resp.StatusCode, Message: er.Message, Fields: er.Fields}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &NetworkError{Op: "request", Err: fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
}
