package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/relayview-io/relayview/internal/models"
)

// APIError carries a non-2xx response body.
type APIError struct {
	Status int
	models.BaseError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.BaseError.Error, e.Message, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.BaseError.Error, e.Status)
}

// ListOptions narrow and page a list call. The zero value lists the first
// server-default page of everything.
type ListOptions struct {
	Skip      int
	Limit     int
	OwnerID   string
	SessionID string
}

func (o ListOptions) query() url.Values {
	values := url.Values{}
	if o.Skip > 0 {
		values.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.OwnerID != "" {
		values.Set("ownerId", o.OwnerID)
	}
	if o.SessionID != "" {
		values.Set("sessionId", o.SessionID)
	}
	return values
}

// ResourceClient calls the five operations of one resource endpoint.
type ResourceClient[T any, A any, U any] struct {
	client *Client
	path   string
}

func (c *Client) Devices() *ResourceClient[models.Device, models.AddDevice, models.UpdateDevice] {
	return &ResourceClient[models.Device, models.AddDevice, models.UpdateDevice]{client: c, path: "devices"}
}

func (c *Client) Sessions() *ResourceClient[models.Session, models.AddSession, models.UpdateSession] {
	return &ResourceClient[models.Session, models.AddSession, models.UpdateSession]{client: c, path: "sessions"}
}

func (c *Client) Viewers() *ResourceClient[models.Viewer, models.AddViewer, models.UpdateViewer] {
	return &ResourceClient[models.Viewer, models.AddViewer, models.UpdateViewer]{client: c, path: "viewers"}
}

func (r *ResourceClient[T, A, U]) List(ctx context.Context, opts ListOptions) (*models.ListResponse[T], error) {
	uri := r.client.url(r.path)
	if query := opts.query().Encode(); query != "" {
		uri += "?" + query
	}
	return do[models.ListResponse[T]](ctx, r.client, http.MethodGet, uri, nil)
}

func (r *ResourceClient[T, A, U]) Get(ctx context.Context, id string) (*T, error) {
	return do[T](ctx, r.client, http.MethodGet, r.client.url(r.path, id), nil)
}

func (r *ResourceClient[T, A, U]) Create(ctx context.Context, request A) (*T, error) {
	return do[T](ctx, r.client, http.MethodPost, r.client.url(r.path), request)
}

func (r *ResourceClient[T, A, U]) Update(ctx context.Context, id string, request U) (*T, error) {
	return do[T](ctx, r.client, http.MethodPut, r.client.url(r.path, id), request)
}

// Delete removes the resource and returns its last known state.
func (r *ResourceClient[T, A, U]) Delete(ctx context.Context, id string) (*T, error) {
	return do[T](ctx, r.client, http.MethodDelete, r.client.url(r.path, id), nil)
}

func do[T any](ctx context.Context, c *Client, method, uri string, payload any) (*T, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		if err := json.Unmarshal(data, &apiErr.BaseError); err != nil {
			apiErr.BaseError.Error = http.StatusText(res.StatusCode)
		}
		return nil, apiErr
	}

	result := new(T)
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}
	return result, nil
}
