package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/Luca-B431/bill-app/internal/api"
)

// Entity is the CRUD facade of one backend resource (e.g., "bills").
// Every call reads the token, builds headers and hits the network; there is
// no cache.
type Entity[T any] struct {
	key    string
	client *api.Client
	tokens TokenSource
}

// NewEntity binds a facade to a resource key.
func NewEntity[T any](key string, client *api.Client, tokens TokenSource) *Entity[T] {
	return &Entity[T]{key: key, client: client, tokens: tokens}
}

// List fetches the whole collection: GET /{key}.
func (e *Entity[T]) List(ctx context.Context, opts ...Option) ([]T, error) {
	raw, err := e.call(ctx, "GET", e.collectionURL(), nil, opts)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("store: decoding %s list: %w", e.key, err)
	}
	return records, nil
}

// Select fetches one record: GET /{key}/{selector}.
func (e *Entity[T]) Select(ctx context.Context, selector string, opts ...Option) (T, error) {
	var record T
	raw, err := e.call(ctx, "GET", e.recordURL(selector), nil, opts)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("store: decoding %s %s: %w", e.key, selector, err)
	}
	return record, nil
}

// Create posts a new record: POST /{key}. The response shape depends on the
// resource (bills answer with {fileUrl, key}), so it is returned raw.
func (e *Entity[T]) Create(ctx context.Context, body Body, opts ...Option) (json.RawMessage, error) {
	return e.call(ctx, "POST", e.collectionURL(), &body, opts)
}

// Update patches a record: PATCH /{key}/{selector}. It returns the record as
// echoed by the backend.
func (e *Entity[T]) Update(ctx context.Context, selector string, body Body, opts ...Option) (T, error) {
	var record T
	raw, err := e.call(ctx, "PATCH", e.recordURL(selector), &body, opts)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return record, fmt.Errorf("store: decoding updated %s %s: %w", e.key, selector, err)
	}
	return record, nil
}

// Delete removes a record: DELETE /{key}/{selector}.
func (e *Entity[T]) Delete(ctx context.Context, selector string, opts ...Option) error {
	_, err := e.call(ctx, "DELETE", e.recordURL(selector), nil, opts)
	return err
}

func (e *Entity[T]) collectionURL() string {
	return "/" + e.key
}

func (e *Entity[T]) recordURL(selector string) string {
	return "/" + e.key + "/" + url.PathEscape(selector)
}

func (e *Entity[T]) call(ctx context.Context, method, path string, body *Body, opts []Option) (json.RawMessage, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	if body != nil && body.ContentType != "" {
		o.NoContentType = true
		if o.Header.Get("Content-Type") == "" {
			WithHeader("Content-Type", body.ContentType)(&o)
		}
	}

	req := api.Request{URL: path, Header: Headers(token, o)}
	if body != nil {
		req.Body = body.Data
	}
	return e.client.Do(ctx, method, req)
}
